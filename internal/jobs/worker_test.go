package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/coursepilot/coursepilot/internal/service"
)

// MockJobProcessor is a mock implementation of JobProcessor
type MockJobProcessor struct {
	mock.Mock
}

func (m *MockJobProcessor) ProcessJobs(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockAnnouncementConductor is a mock implementation of AnnouncementConductor
type MockAnnouncementConductor struct {
	mock.Mock
}

func (m *MockAnnouncementConductor) GenerateAll(ctx context.Context) ([]service.CourseRunStatus, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.CourseRunStatus), args.Error(1)
}

// TestWorker_StartStop tests the worker start and stop functionality
func TestWorker_StartStop(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	// Let it run for a bit
	time.Sleep(250 * time.Millisecond)

	worker.Stop()
	wg.Wait()

	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

// TestWorker_ImmediateFirstSweep tests the first sweep runs without waiting an interval
func TestWorker_ImmediateFirstSweep(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	// A long interval: only the immediate sweep can fire within the test.
	worker := NewWorker(mockProcessor, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(100 * time.Millisecond)

	worker.Stop()
	wg.Wait()

	mockProcessor.AssertNumberOfCalls(t, "ProcessJobs", 1)
}

// TestWorker_ContextCancellation tests worker stops on context cancellation
func TestWorker_ContextCancellation(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Start(ctx)
	}()

	time.Sleep(150 * time.Millisecond)

	cancel()
	<-done

	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

// TestWorker_KeepsRunningAfterError tests a failing sweep does not stop the loop
func TestWorker_KeepsRunningAfterError(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(errors.New("sweep failed"))

	worker := NewWorker(mockProcessor, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(180 * time.Millisecond)

	worker.Stop()
	wg.Wait()

	// Immediate sweep plus at least two ticks.
	assert.GreaterOrEqual(t, len(mockProcessor.Calls), 3)
}

// TestConductorWorker_ProcessJobs tests a mixed sweep result
func TestConductorWorker_ProcessJobs(t *testing.T) {
	mockConductor := new(MockAnnouncementConductor)
	mockConductor.On("GenerateAll", mock.Anything).Return([]service.CourseRunStatus{
		{CourseID: "cs101"},
		{CourseID: "math200", Err: errors.New("no schedule entry")},
	}, nil)

	worker := NewConductorWorker(mockConductor)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockConductor.AssertExpectations(t)
}

// TestConductorWorker_ProcessJobs_NoCourses tests an empty sweep
func TestConductorWorker_ProcessJobs_NoCourses(t *testing.T) {
	mockConductor := new(MockAnnouncementConductor)
	mockConductor.On("GenerateAll", mock.Anything).Return([]service.CourseRunStatus{}, nil)

	worker := NewConductorWorker(mockConductor)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
}

// TestConductorWorker_ProcessJobs_SweepFailure tests a sweep-level failure is wrapped
func TestConductorWorker_ProcessJobs_SweepFailure(t *testing.T) {
	mockConductor := new(MockAnnouncementConductor)
	mockConductor.On("GenerateAll", mock.Anything).Return(nil, errors.New("database unavailable"))

	worker := NewConductorWorker(mockConductor)
	err := worker.ProcessJobs(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "conductor sweep failed")
}
