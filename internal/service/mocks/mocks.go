// Package mocks provides testify mocks for the service interfaces.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/finledger/txprocessor/internal/service"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockTransactionProcessor implements service.TransactionProcessor over testify/mock.
type MockTransactionProcessor struct {
	mock.Mock
}

// NewMockTransactionProcessor creates a new instance of MockTransactionProcessor.
func NewMockTransactionProcessor(t testingT) *MockTransactionProcessor {
	m := &MockTransactionProcessor{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (_m *MockTransactionProcessor) ProcessTransaction(ctx context.Context, cmd service.TransactionCommand) (*service.Result, error) {
	ret := _m.Called(ctx, cmd)

	var r0 *service.Result
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*service.Result)
	}
	return r0, ret.Error(1)
}

// MockAccountManager implements service.AccountManager over testify/mock.
type MockAccountManager struct {
	mock.Mock
}

// NewMockAccountManager creates a new instance of MockAccountManager.
func NewMockAccountManager(t testingT) *MockAccountManager {
	m := &MockAccountManager{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (_m *MockAccountManager) CreateAccount(ctx context.Context, clientID string, creditLimitCents int64) (*service.AccountResult, error) {
	ret := _m.Called(ctx, clientID, creditLimitCents)

	var r0 *service.AccountResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*service.AccountResult)
	}
	return r0, ret.Error(1)
}

func (_m *MockAccountManager) GetAccount(ctx context.Context, id uuid.UUID) (*service.AccountResult, error) {
	ret := _m.Called(ctx, id)

	var r0 *service.AccountResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*service.AccountResult)
	}
	return r0, ret.Error(1)
}

var (
	_ service.TransactionProcessor = (*MockTransactionProcessor)(nil)
	_ service.AccountManager       = (*MockAccountManager)(nil)
)
