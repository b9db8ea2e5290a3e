package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
	"github.com/na4oman/samsung-shop/pkg/retry"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("part number already exists")
)

// StoreError is a classified persistence failure.
type StoreError struct {
	Kind retry.Kind
	Op   string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// RetryKind lets retry.Do skip retries for client failures.
func (e *StoreError) RetryKind() retry.Kind { return e.Kind }

func clientError(op string, err error) *StoreError {
	return &StoreError{Kind: retry.KindClient, Op: op, Err: err}
}

// DynamoDB error codes that clear up on their own.
var dynamoTransientCodes = map[string]bool{
	"ProvisionedThroughputExceededException": true,
	"ThrottlingException":                    true,
	"RequestLimitExceeded":                   true,
	"InternalServerError":                    true,
	"ServiceUnavailable":                     true,
	"TransactionConflictException":           true,
}

func classifyDynamo(op string, err error) *StoreError {
	kind := retry.KindUnknown
	var apiErr smithy.APIError
	switch {
	case errors.As(err, &apiErr):
		switch {
		case dynamoTransientCodes[apiErr.ErrorCode()]:
			kind = retry.KindTransient
		case apiErr.ErrorFault() == smithy.FaultClient:
			kind = retry.KindClient
		case apiErr.ErrorFault() == smithy.FaultServer:
			kind = retry.KindTransient
		}
	case errors.Is(err, context.DeadlineExceeded):
		kind = retry.KindTransient
	}
	return &StoreError{Kind: kind, Op: op, Err: err}
}

func classifyMongo(op string, err error) *StoreError {
	switch {
	case mongo.IsDuplicateKeyError(err):
		return clientError(op, ErrConflict)
	case mongo.IsTimeout(err), mongo.IsNetworkError(err):
		return &StoreError{Kind: retry.KindTransient, Op: op, Err: err}
	}
	var le mongo.LabeledError
	if errors.As(err, &le) && le.HasErrorLabel("RetryableWriteError") {
		return &StoreError{Kind: retry.KindTransient, Op: op, Err: err}
	}
	return &StoreError{Kind: retry.KindUnknown, Op: op, Err: err}
}
