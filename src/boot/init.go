package boot

import (
	"context"
	"eventbooking/src/common"
	"eventbooking/src/config"
	"eventbooking/src/db"
	"eventbooking/src/lib"
	"eventbooking/src/models"
	"eventbooking/src/repositories"
	"eventbooking/src/types"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.Booking{},
		&models.UserBooking{},
		&models.TrailLog{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

// InitRedis returns nil when Redis is not configured or not reachable, in
// which case booking locks stay in-process.
func InitRedis() *redis.Client {
	rdb := lib.GetRedisClient()
	if rdb == nil {
		log.Println("[redis] REDIS_HOST not set, using in-process booking locks")
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := lib.PingRedis(ctx, rdb); err != nil {
		log.Println("[redis] unreachable, using in-process booking locks")
		return nil
	}
	return rdb
}

// InitBroker starts the audit trail consumer for the configured broker. The
// returned func stops it.
func InitBroker(gdb *gorm.DB) (stop func()) {
	recorder := common.NewTrailRecorder(gdb)
	switch config.BrokerKind() {
	case "kafka":
		if _, err := lib.KafkaCreateTopics(types.ACTIVITY_TOPIC); err != nil {
			log.Printf("[kafka] could not create topic %s: %s\n", types.ACTIVITY_TOPIC, err.Error())
		}
		stop, err := lib.KafkaConsumer("booking_activity_trail", []string{types.ACTIVITY_TOPIC}, recorder.Handle)
		if err != nil {
			log.Printf("[kafka] consumer not started: %s\n", err.Error())
			return func() {}
		}
		return stop
	case "rabbitmq":
		client, err := lib.NewRabbitClient(config.RabbitURL(), types.ACTIVITY_TOPIC, types.ACTIVITY_TOPIC+".audit")
		if err != nil {
			log.Printf("[rabbitmq] consumer not started: %s\n", err.Error())
			return func() {}
		}
		if err := client.Consume(recorder.Handle); err != nil {
			log.Printf("[rabbitmq] consumer not started: %s\n", err.Error())
			client.Close()
			return func() {}
		}
		return client.Close
	case "sns":
		stop, err := lib.SQSConsume(config.SQSQueueURL(), recorder.Handle)
		if err != nil {
			log.Printf("[sqs] consumer not started: %s\n", err.Error())
			return func() {}
		}
		return stop
	}
	return func() {}
}

func InitScheduler(store repositories.Store, publisher lib.Publisher) {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	reconciler := common.NewReconciler(store, publisher, config.ReconcileRepair())
	if _, err := lib.CreateCronJob("reconcile-bookings", reconciler.Job, config.ReconcileInterval()); err != nil {
		log.Printf("Error scheduling reconciliation: %s\n", err.Error())
		return
	}
	log.Println("Jobs in queue:", len(sched.Jobs()))
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	err = sched.Shutdown()
	if err != nil {
		log.Println("An error has occurred while shutting stopping Scheduler. Check logs for info")
		return
	}
}
