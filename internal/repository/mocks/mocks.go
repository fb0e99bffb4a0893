// Package mocks provides testify mocks for the repository interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/finledger/txprocessor/internal/models"
	"github.com/finledger/txprocessor/internal/repository"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockAccountRepository implements repository.AccountRepository over testify/mock.
type MockAccountRepository struct {
	mock.Mock
}

// NewMockAccountRepository creates a new instance of MockAccountRepository.
func NewMockAccountRepository(t testingT) *MockAccountRepository {
	m := &MockAccountRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (_m *MockAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	ret := _m.Called(ctx, id)

	var r0 *models.Account
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Account)
	}
	return r0, ret.Error(1)
}

func (_m *MockAccountRepository) Add(ctx context.Context, account *models.Account) error {
	ret := _m.Called(ctx, account)
	return ret.Error(0)
}

func (_m *MockAccountRepository) Update(ctx context.Context, account *models.Account) error {
	ret := _m.Called(ctx, account)
	return ret.Error(0)
}

// MockTransactionRepository implements repository.TransactionRepository over testify/mock.
type MockTransactionRepository struct {
	mock.Mock
}

// NewMockTransactionRepository creates a new instance of MockTransactionRepository.
func NewMockTransactionRepository(t testingT) *MockTransactionRepository {
	m := &MockTransactionRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (_m *MockTransactionRepository) GetByReferenceAndLeg(ctx context.Context, referenceID string, leg int) (*models.Transaction, error) {
	ret := _m.Called(ctx, referenceID, leg)

	var r0 *models.Transaction
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Transaction)
	}
	return r0, ret.Error(1)
}

func (_m *MockTransactionRepository) Add(ctx context.Context, txn *models.Transaction) error {
	ret := _m.Called(ctx, txn)
	return ret.Error(0)
}

// MockOutboxRepository implements repository.OutboxRepository over testify/mock.
type MockOutboxRepository struct {
	mock.Mock
}

// NewMockOutboxRepository creates a new instance of MockOutboxRepository.
func NewMockOutboxRepository(t testingT) *MockOutboxRepository {
	m := &MockOutboxRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (_m *MockOutboxRepository) Add(ctx context.Context, msg *models.OutboxMessage) error {
	ret := _m.Called(ctx, msg)
	return ret.Error(0)
}

func (_m *MockOutboxRepository) GetPending(ctx context.Context, limit int) ([]*models.OutboxMessage, error) {
	ret := _m.Called(ctx, limit)

	var r0 []*models.OutboxMessage
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*models.OutboxMessage)
	}
	return r0, ret.Error(1)
}

func (_m *MockOutboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID, processedAt time.Time) error {
	ret := _m.Called(ctx, id, processedAt)
	return ret.Error(0)
}

func (_m *MockOutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, attempts int, nextAttemptAt time.Time, lastError string) error {
	ret := _m.Called(ctx, id, attempts, nextAttemptAt, lastError)
	return ret.Error(0)
}

// MockCustomerRepository implements repository.CustomerRepository over testify/mock.
type MockCustomerRepository struct {
	mock.Mock
}

// NewMockCustomerRepository creates a new instance of MockCustomerRepository.
func NewMockCustomerRepository(t testingT) *MockCustomerRepository {
	m := &MockCustomerRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (_m *MockCustomerRepository) GetByClientID(ctx context.Context, clientID string) (*models.Customer, error) {
	ret := _m.Called(ctx, clientID)

	var r0 *models.Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Customer)
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerRepository) Add(ctx context.Context, customer *models.Customer) error {
	ret := _m.Called(ctx, customer)
	return ret.Error(0)
}

var (
	_ repository.AccountRepository     = (*MockAccountRepository)(nil)
	_ repository.TransactionRepository = (*MockTransactionRepository)(nil)
	_ repository.OutboxRepository      = (*MockOutboxRepository)(nil)
	_ repository.CustomerRepository    = (*MockCustomerRepository)(nil)
)
