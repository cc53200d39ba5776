package lib

import (
	"context"
	"eventbooking/src/config"
	"eventbooking/src/types"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

func GetKafkaProducerConfig(clientId string) kafka.ConfigMap {
	return kafka.ConfigMap{
		"bootstrap.servers": config.KafkaBroker(),
		"client.id":         clientId,
		"acks":              "all",
	}
}

// GetKafkaConsumerConfig disables automatic offset storage; consumers store
// an offset only after the message was handled.
func GetKafkaConsumerConfig(groupId string) kafka.ConfigMap {
	return kafka.ConfigMap{
		"bootstrap.servers":        config.KafkaBroker(),
		"group.id":                 groupId,
		"auto.offset.reset":        "smallest",
		"retry.backoff.ms":         100,
		"enable.auto.commit":       true,
		"enable.auto.offset.store": false,
	}
}

type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
}

func NewKafkaPublisher(clientId string, topic string) (*KafkaPublisher, error) {
	cfg := GetKafkaProducerConfig(clientId)
	p, err := kafka.NewProducer(&cfg)
	if err != nil {
		log.Printf("Error on producer: %s\n", err.Error())
		return nil, err
	}
	go func() {
		for e := range p.Events() {
			if m, ok := e.(*kafka.Message); ok && m.TopicPartition.Error != nil {
				log.Printf("[kafka] delivery failed for %s: %s\n", string(m.Key), m.TopicPartition.Error.Error())
			}
		}
	}()
	return &KafkaPublisher{producer: p, topic: topic}, nil
}

func (k *KafkaPublisher) Publish(_ context.Context, activity Activity) error {
	value, err := activity.Encode()
	if err != nil {
		return err
	}
	return k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &k.topic, Partition: kafka.PartitionAny},
		Key:            []byte(activity.Subject),
		Value:          value,
		Headers:        []kafka.Header{{Key: "type", Value: []byte(activity.Type)}},
	}, nil)
}

func (k *KafkaPublisher) Close() {
	if left := k.producer.Flush(5000); left > 0 {
		log.Printf("[kafka] %d messages were not delivered before shutdown\n", left)
	}
	k.producer.Close()
}

// KafkaConsumer polls the topics in the background and hands every message
// value to handler until stop is called.
func KafkaConsumer(groupId string, topics []string, handler types.Handler) (stop func(), err error) {
	log.Println("Initializing kafka Consumer...")
	cfg := GetKafkaConsumerConfig(groupId)
	master, err := kafka.NewConsumer(&cfg)
	if err != nil {
		log.Printf("Error on master: %s\n", err.Error())
		return nil, err
	}
	if err = master.SubscribeTopics(topics, nil); err != nil {
		log.Printf("Error on consumer: %s\n", err.Error())
		master.Close()
		return nil, err
	}
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		defer master.Close()
		log.Println("[BACKGROUND]: waiting for messages...")
		for {
			select {
			case <-done:
				return
			default:
			}
			switch e := master.Poll(100).(type) {
			case *kafka.Message:
				if err := handler(string(e.Value)); err != nil {
					log.Printf("[kafka] handler failed at %s: %s\n", e.TopicPartition.String(), err.Error())
					// rewind so the message is polled again
					if err := master.Seek(e.TopicPartition, 0); err != nil {
						log.Printf("[kafka] could not rewind %s: %s\n", e.TopicPartition.String(), err.Error())
					}
					time.Sleep(time.Second)
					continue
				}
				next := e.TopicPartition
				next.Offset++
				if _, err := master.StoreOffsets([]kafka.TopicPartition{next}); err != nil {
					log.Printf("[kafka] could not store offset %s: %s\n", next.String(), err.Error())
				}
			case kafka.Error:
				fmt.Fprintf(os.Stderr, "%% Error: %v\n", e)
				if e.IsFatal() {
					return
				}
			}
		}
	}()
	return func() {
		close(done)
		<-finished
	}, nil
}

func KafkaCreateTopics(topics ...string) ([]kafka.TopicResult, error) {
	a, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": config.KafkaBroker(),
	})
	if err != nil {
		log.Printf("Error on AdminClient: %s\n", err.Error())
		return nil, err
	}
	defer a.Close()
	topicsDef := []kafka.TopicSpecification{}
	for _, topic := range topics {
		topicsDef = append(topicsDef, kafka.TopicSpecification{
			Topic:             topic,
			NumPartitions:     10,
			ReplicationFactor: 1,
		})
	}
	result, err := a.CreateTopics(context.Background(), topicsDef)
	if err != nil {
		log.Printf("Error creating topics: %s\n", err.Error())
		return nil, err
	}
	return result, nil
}
