package activity

import (
	"context"
	"errors"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/bytedance/sonic"

	"workhub-api/domain"
)

// Sender delivers one activity record downstream.
type Sender interface {
	Send(ctx context.Context, a domain.Activity) error
}

type queueClient interface {
	EnqueueMessage(ctx context.Context, content string, o *azqueue.EnqueueMessageOptions) (azqueue.EnqueueMessagesResponse, error)
}

// QueueSender publishes activity as JSON messages on an Azure Storage queue.
type QueueSender struct {
	queue queueClient
}

// NewQueueSender connects to the named queue using a storage connection string.
func NewQueueSender(connStr, queueName string) (*QueueSender, error) {
	queueClientOptions := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute * 5,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	q, err := azqueue.NewQueueClientFromConnectionString(connStr, queueName, &queueClientOptions)
	if err != nil {
		return nil, err
	}
	return &QueueSender{queue: q}, nil
}

func (s *QueueSender) Send(ctx context.Context, a domain.Activity) error {
	data, err := sonic.Marshal(a)
	if err != nil {
		return err
	}
	_, err = s.queue.EnqueueMessage(ctx, string(data), nil)
	return err
}

type queueCreator interface {
	Create(ctx context.Context, o *azqueue.CreateOptions) (azqueue.CreateResponse, error)
}

// EnsureQueue creates the named queue. An existing queue is not an error.
func EnsureQueue(ctx context.Context, connStr, queueName string) error {
	q, err := azqueue.NewQueueClientFromConnectionString(connStr, queueName, nil)
	if err != nil {
		return err
	}
	return ensureQueue(ctx, q)
}

func ensureQueue(ctx context.Context, q queueCreator) error {
	_, err := q.Create(ctx, nil)
	if err == nil {
		return nil
	}
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) && respErr.ErrorCode == "QueueAlreadyExists" {
		return nil
	}
	return err
}
