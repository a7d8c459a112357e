package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anicoll/fleetsync/internal/pkg/model"
	"github.com/anicoll/fleetsync/internal/pkg/views"
)

type fakeStore struct {
	hashes map[string]map[string]any
	calls  int
	err    error
}

func (f *fakeStore) HSetAll(_ context.Context, hashes map[string]map[string]any) error {
	f.calls++
	f.hashes = hashes
	return f.err
}

func TestKey(t *testing.T) {
	assert.Equal(t, "fleetsync:device", Key(model.KindDevice))
	assert.Equal(t, "fleetsync:location", Key(model.KindLocation))
}

func TestCache_Write(t *testing.T) {
	store := &fakeStore{}
	c := New(store)

	require.NoError(t, c.Write(context.Background(), []views.View{
		{Kind: model.KindDevice, ID: 1, Name: "proj-1"},
		{Kind: model.KindDevice, ID: 2, Name: "proj-2"},
		{Kind: model.KindTag, ID: 10, Name: "projectors", HasError: []string{"lamp (error)"}},
	}))
	require.Equal(t, 1, store.calls)
	require.Len(t, store.hashes, 2)
	require.Len(t, store.hashes["fleetsync:device"], 2)

	var tag views.View
	require.NoError(t, json.Unmarshal([]byte(store.hashes["fleetsync:tag"]["10"].(string)), &tag))
	assert.Equal(t, "projectors", tag.Name)
	assert.Equal(t, []string{"lamp (error)"}, tag.HasError)
}

func TestCache_WriteEmptyAndErrors(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	c := New(store)

	require.NoError(t, c.Write(context.Background(), nil))
	assert.Zero(t, store.calls)

	assert.EqualError(t, c.Write(context.Background(), []views.View{{Kind: model.KindTag, ID: 1}}), "connection refused")
}
