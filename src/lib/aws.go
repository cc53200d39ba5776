package lib

import (
	"context"
	"errors"
	"eventbooking/src/types"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/tidwall/gjson"
)

// awsGetSdkConfig loads the default credential chain and, when
// AWS_IAM_ROLE_ARN is set, swaps it for a session of that role.
func awsGetSdkConfig(ctx context.Context) (aws.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		log.Printf("Error loading default config: %s\n", err.Error())
		return cfg, err
	}
	iamRole := os.Getenv("AWS_IAM_ROLE_ARN")
	if iamRole == "" {
		return cfg, nil
	}
	stsClient := sts.NewFromConfig(cfg)
	output, err := stsClient.AssumeRole(ctx, &sts.AssumeRoleInput{
		RoleArn:         aws.String(iamRole),
		RoleSessionName: aws.String("booking-activity"),
	})
	if err != nil {
		log.Printf("Error configuring STS client: %s\n", err.Error())
		return cfg, err
	}
	creds := output.Credentials
	return config.LoadDefaultConfig(ctx, config.WithCredentialsProvider(
		credentials.NewStaticCredentialsProvider(*creds.AccessKeyId, *creds.SecretAccessKey, *creds.SessionToken),
	))
}

type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSPublisher fans activities out through an SNS topic, usually subscribed
// by the SQS queue the trail consumer reads.
type SNSPublisher struct {
	client   snsAPI
	topicArn string
}

func NewSNSPublisher(ctx context.Context, topicArn string) (*SNSPublisher, error) {
	if topicArn == "" {
		return nil, errors.New("AWS_SNS_TOPIC_ARN is not set")
	}
	cfg, err := awsGetSdkConfig(ctx)
	if err != nil {
		return nil, err
	}
	return &SNSPublisher{client: sns.NewFromConfig(cfg), topicArn: topicArn}, nil
}

func (p *SNSPublisher) Publish(ctx context.Context, activity Activity) error {
	body, err := activity.Encode()
	if err != nil {
		return err
	}
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicArn),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"type": {DataType: aws.String("String"), StringValue: aws.String(string(activity.Type))},
		},
	})
	if err != nil {
		log.Printf("[SNS] Error publishing %s: %s\n", activity.Type, err.Error())
		return err
	}
	return nil
}

func (p *SNSPublisher) Close() {}

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

type SQSConsumer struct {
	client   sqsAPI
	queueURL string
	handler  types.Handler
}

// SQSConsume long-polls the queue in the background and hands every body to
// handler. Messages are deleted only once handler succeeds; failed ones
// reappear after the visibility timeout.
func SQSConsume(queueURL string, handler types.Handler) (stop func(), err error) {
	if queueURL == "" {
		return nil, errors.New("AWS_SQS_QUEUE_URL is not set")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cfg, err := awsGetSdkConfig(ctx)
	if err != nil {
		cancel()
		return nil, err
	}
	c := &SQSConsumer{client: sqs.NewFromConfig(cfg), queueURL: queueURL, handler: handler}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("%s: Listening for messages...", queueURL)
		for ctx.Err() == nil {
			if err := c.poll(ctx); err != nil && ctx.Err() == nil {
				log.Printf("[SQS] Error receiving messages: %s\n", err.Error())
				time.Sleep(5 * time.Second)
			}
		}
	}()
	return func() {
		cancel()
		wg.Wait()
	}, nil
}

func (c *SQSConsumer) poll(ctx context.Context) error {
	output, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.queueURL),
		WaitTimeSeconds:     20,
		MaxNumberOfMessages: 10,
	})
	if err != nil {
		return err
	}
	for _, m := range output.Messages {
		if err := c.handler(unwrapSNSEnvelope(aws.ToString(m.Body))); err != nil {
			log.Printf("[SQS] Keeping message %s: %s\n", aws.ToString(m.MessageId), err.Error())
			continue
		}
		c.deleteMessage(ctx, m)
	}
	return nil
}

func (c *SQSConsumer) deleteMessage(ctx context.Context, msg sqstypes.Message) {
	_, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: msg.ReceiptHandle,
	})
	if err != nil {
		log.Printf("Error deleting message from queue: %s\n", err.Error())
	}
}

// unwrapSNSEnvelope returns the published message when the queue subscription
// does not use raw delivery.
func unwrapSNSEnvelope(body string) string {
	if !gjson.Valid(body) {
		return body
	}
	env := gjson.GetMany(body, "Type", "Message")
	if env[0].String() == "Notification" && env[1].Exists() {
		return strings.Clone(env[1].String())
	}
	return body
}
