package handler

import "pdf-toolkit/internal/domain"

// MockHandlerLogger is a mock logger for handler tests
type MockHandlerLogger struct{}

func (m *MockHandlerLogger) Info(msg string, fields ...interface{})             {}
func (m *MockHandlerLogger) Error(msg string, err error, fields ...interface{}) {}
func (m *MockHandlerLogger) Debug(msg string, fields ...interface{})            {}
func (m *MockHandlerLogger) Warn(msg string, fields ...interface{})             {}

// NewMockHandlerLogger creates a mock logger for testing
func NewMockHandlerLogger() domain.Logger {
	return &MockHandlerLogger{}
}
