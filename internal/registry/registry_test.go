package registry_test

import (
	"errors"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramiqadoumi/go-fleet-dispatch/internal/domain"
	"github.com/ramiqadoumi/go-fleet-dispatch/internal/registry"
)

var idPattern = regexp.MustCompile(`^T[0-9A-F]{8}$`)

func origin() domain.Position { return domain.MustPosition(0, 0) }

func ids(tasks []domain.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID())
	}
	return out
}

func TestRegistry_Create_GeneratesUniqueIDs(t *testing.T) {
	reg := registry.New()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		task, err := reg.Create(domain.TaskDelivery, origin())
		require.NoError(t, err)
		assert.Regexp(t, idPattern, task.ID())
		assert.False(t, seen[task.ID()], "duplicate id %s", task.ID())
		seen[task.ID()] = true
	}
	assert.Len(t, reg.All(), 50)
}

func TestRegistry_Create_InvalidOptions(t *testing.T) {
	reg := registry.New()
	_, err := reg.Create(domain.TaskPatrol, origin(), domain.WithPriority(9))

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %T", err)
	assert.Empty(t, reg.All(), "invalid task must not be stored")
}

func TestRegistry_ConvenienceConstructors(t *testing.T) {
	reg := registry.New()

	delivery, err := reg.CreateDelivery(origin(), 0, "")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskDelivery, delivery.Type())
	assert.Equal(t, 2, delivery.Priority())
	assert.Equal(t, 45, delivery.EstimatedDuration())
	assert.Equal(t, "delivery task", delivery.Description())

	patrol, err := reg.CreatePatrol(origin(), 0, "night round")
	require.NoError(t, err)
	assert.Equal(t, 1, patrol.Priority())
	assert.Equal(t, 60, patrol.EstimatedDuration())
	assert.Equal(t, "night round", patrol.Description())

	cleaning, err := reg.CreateCleaning(origin(), 5, "")
	require.NoError(t, err)
	assert.Equal(t, 5, cleaning.Priority())
	assert.Equal(t, 90, cleaning.EstimatedDuration())
	assert.Equal(t, "cleaning task", cleaning.Description())
}

func TestRegistry_Get(t *testing.T) {
	reg := registry.New()
	created, err := reg.CreatePatrol(origin(), 0, "")
	require.NoError(t, err)

	got, err := reg.Get(created.ID())
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = reg.Get("TMISSING")
	var notFound *domain.TaskNotFoundError
	require.True(t, errors.As(err, &notFound), "expected TaskNotFoundError, got %T", err)
	assert.Equal(t, "TMISSING", notFound.TaskID)
}

func TestRegistry_Queries(t *testing.T) {
	reg := registry.New()
	d1, err := reg.CreateDelivery(origin(), 4, "")
	require.NoError(t, err)
	p1, err := reg.CreatePatrol(origin(), 1, "")
	require.NoError(t, err)
	c1, err := reg.CreateCleaning(origin(), 5, "")
	require.NoError(t, err)
	d2, err := reg.CreateDelivery(origin(), 4, "")
	require.NoError(t, err)

	require.NoError(t, reg.UpdateStatus(d2.ID(), domain.TaskCompleted))

	assert.Equal(t, []string{d1.ID(), d2.ID()}, ids(reg.ByType(domain.TaskDelivery)))
	assert.Equal(t, []string{d2.ID()}, ids(reg.ByStatus(domain.TaskCompleted)))
	assert.Equal(t, []string{c1.ID(), d1.ID(), d2.ID()}, ids(reg.HighPriority()))
	assert.Equal(t, []string{c1.ID(), d1.ID(), p1.ID()}, ids(reg.Pending()))
}

func TestRegistry_ReturnsCopies(t *testing.T) {
	reg := registry.New()
	created, err := reg.CreateDelivery(origin(), 0, "")
	require.NoError(t, err)

	created.Fail("local change")
	got, err := reg.Get(created.ID())
	require.NoError(t, err)
	assert.True(t, got.IsPending())
}

func TestRegistry_UpdateStatus(t *testing.T) {
	reg := registry.New()
	task, err := reg.CreateDelivery(origin(), 0, "")
	require.NoError(t, err)

	require.NoError(t, reg.UpdateStatus(task.ID(), domain.TaskInProgress))
	got, err := reg.Get(task.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.TaskInProgress, got.Status())

	var notFound *domain.TaskNotFoundError
	require.True(t, errors.As(reg.UpdateStatus("TNOPE", domain.TaskFailed), &notFound))

	var verr *domain.ValidationError
	require.True(t, errors.As(reg.UpdateStatus(task.ID(), "lost"), &verr))
}

func TestRegistry_UpdateStatusStoresCanonicalValue(t *testing.T) {
	reg := registry.New()
	task, err := reg.CreatePatrol(origin(), 0, "")
	require.NoError(t, err)
	require.NoError(t, reg.UpdateStatus(task.ID(), domain.TaskCompleted))

	require.NoError(t, reg.UpdateStatus(task.ID(), "PENDING"))

	assert.Equal(t, []string{task.ID()}, ids(reg.Pending()))
	st := reg.Stats()
	assert.Equal(t, 1, st.ByStatus[domain.TaskPending])
	assert.NotContains(t, st.ByStatus, domain.TaskStatus("PENDING"))
}

func TestRegistry_Delete(t *testing.T) {
	reg := registry.New()
	task, err := reg.CreateDelivery(origin(), 0, "")
	require.NoError(t, err)

	require.NoError(t, reg.Delete(task.ID()))
	assert.Empty(t, reg.All())

	var notFound *domain.TaskNotFoundError
	require.True(t, errors.As(reg.Delete(task.ID()), &notFound), "second delete must report not found")
}

func TestRegistry_Stats(t *testing.T) {
	reg := registry.New()
	_, err := reg.CreateDelivery(origin(), 4, "")
	require.NoError(t, err)
	p, err := reg.CreatePatrol(origin(), 0, "")
	require.NoError(t, err)
	_, err = reg.CreateCleaning(origin(), 0, "")
	require.NoError(t, err)
	require.NoError(t, reg.UpdateStatus(p.ID(), domain.TaskFailed))

	st := reg.Stats()
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 1, st.HighPriority)
	assert.Equal(t, 2, st.ByStatus[domain.TaskPending])
	assert.Equal(t, 1, st.ByStatus[domain.TaskFailed])
	assert.Equal(t, 0, st.ByStatus[domain.TaskCompleted])
	assert.Len(t, st.ByStatus, len(domain.TaskStatuses))
	for _, tt := range domain.TaskTypes {
		assert.Equal(t, 1, st.ByType[tt], "type %s", tt)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	reg := registry.New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); _, _ = reg.CreateDelivery(origin(), 0, "") }()
		go func() { defer wg.Done(); _ = reg.Stats() }()
	}
	wg.Wait()
	assert.Len(t, reg.All(), 50)
}
