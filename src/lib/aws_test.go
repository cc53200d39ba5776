package lib

import (
	"context"
	"errors"
	"eventbooking/src/types"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type fakeSNS struct {
	inputs []*sns.PublishInput
}

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, in)
	return &sns.PublishOutput{MessageId: aws.String("m-1")}, nil
}

type fakeSQS struct {
	messages []sqstypes.Message
	deleted  []string
}

func (f *fakeSQS) ReceiveMessage(_ context.Context, _ *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	out := &sqs.ReceiveMessageOutput{Messages: f.messages}
	f.messages = nil
	return out, nil
}

func (f *fakeSQS) DeleteMessage(_ context.Context, in *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func TestSNSPublisher(t *testing.T) {
	client := &fakeSNS{}
	p := &SNSPublisher{client: client, topicArn: "arn:aws:sns:local:1:booking-activity"}

	a := NewActivity(types.ACTIVITY_BOOKING_CANCELLED, "user:3", "event:9", types.JSONB{"bookingId": 4})
	require.NoError(t, p.Publish(context.Background(), a))

	require.Len(t, client.inputs, 1)
	in := client.inputs[0]
	assert.Equal(t, "arn:aws:sns:local:1:booking-activity", aws.ToString(in.TopicArn))
	assert.Equal(t, a.ID, gjson.Get(aws.ToString(in.Message), "id").String())
	assert.Equal(t, "booking.cancelled", aws.ToString(in.MessageAttributes["type"].StringValue))
}

func TestNewSNSPublisherNeedsTopic(t *testing.T) {
	_, err := NewSNSPublisher(context.Background(), "")
	assert.Error(t, err)
}

func TestSQSConsumerPoll(t *testing.T) {
	raw := `{"id":"a1","type":"booking.created"}`
	envelope := `{"Type":"Notification","MessageId":"x","Message":"{\"id\":\"a2\",\"type\":\"event.deleted\"}"}`
	client := &fakeSQS{messages: []sqstypes.Message{
		{Body: aws.String(raw), ReceiptHandle: aws.String("r1")},
		{Body: aws.String(envelope), ReceiptHandle: aws.String("r2")},
	}}

	var got []string
	c := &SQSConsumer{client: client, queueURL: "http://localhost/queue", handler: func(body string) error {
		got = append(got, body)
		return nil
	}}
	require.NoError(t, c.poll(context.Background()))

	require.Len(t, got, 2)
	assert.Equal(t, raw, got[0])
	assert.Equal(t, "a2", gjson.Get(got[1], "id").String())
	assert.Equal(t, []string{"r1", "r2"}, client.deleted)
}

func TestSQSConsumerKeepsFailedMessages(t *testing.T) {
	client := &fakeSQS{messages: []sqstypes.Message{
		{MessageId: aws.String("m1"), Body: aws.String(`{"id":"a1"}`), ReceiptHandle: aws.String("r1")},
		{MessageId: aws.String("m2"), Body: aws.String(`{"id":"a2"}`), ReceiptHandle: aws.String("r2")},
	}}

	c := &SQSConsumer{client: client, queueURL: "http://localhost/queue", handler: func(body string) error {
		if gjson.Get(body, "id").String() == "a1" {
			return errors.New("database unavailable")
		}
		return nil
	}}
	require.NoError(t, c.poll(context.Background()))

	assert.Equal(t, []string{"r2"}, client.deleted)
}

func TestUnwrapSNSEnvelope(t *testing.T) {
	assert.Equal(t, "not json", unwrapSNSEnvelope("not json"))
	assert.Equal(t, `{"Type":"SubscriptionConfirmation"}`, unwrapSNSEnvelope(`{"Type":"SubscriptionConfirmation"}`))
}
