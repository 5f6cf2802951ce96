package repository

import (
	"context"
	"errors"
	"testing"

	"smartharvester/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStrategies_FirstNonEmptyWins(t *testing.T) {
	secondRan := false
	strategies := []queryStrategy[string]{
		{name: "index", run: func(context.Context) ([]string, error) { return []string{"a"}, nil }},
		{name: "scan", run: func(context.Context) ([]string, error) { secondRan = true; return []string{"b"}, nil }},
	}

	items, err := runStrategies(context.Background(), "plantings", strategies)

	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, items)
	assert.False(t, secondRan, "later stages only run when earlier ones miss")
}

func TestRunStrategies_ErroredStageSkipped(t *testing.T) {
	strategies := []queryStrategy[string]{
		{name: "index", run: func(context.Context) ([]string, error) { return nil, errors.New("index missing") }},
		{name: "scan", run: func(context.Context) ([]string, error) { return []string{"a"}, nil }},
	}

	items, err := runStrategies(context.Background(), "plantings", strategies)

	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, items)
}

func TestRunStrategies_EmptySuccessIsNotAnError(t *testing.T) {
	strategies := []queryStrategy[string]{
		{name: "index", run: func(context.Context) ([]string, error) { return nil, errors.New("index missing") }},
		{name: "scan", run: func(context.Context) ([]string, error) { return nil, nil }},
	}

	items, err := runStrategies(context.Background(), "plantings", strategies)

	require.NoError(t, err, "a stage that paginated to exhaustion answered the query")
	assert.Empty(t, items)
}

func TestRunStrategies_AllStagesFailing(t *testing.T) {
	strategies := []queryStrategy[string]{
		{name: "index", run: func(context.Context) ([]string, error) { return nil, errors.New("index missing") }},
		{name: "scan", run: func(context.Context) ([]string, error) { return nil, errors.New("scan failed") }},
	}

	_, err := runStrategies(context.Background(), "plantings", strategies)

	assert.ErrorIs(t, err, models.ErrStoreUnavailable)
}
