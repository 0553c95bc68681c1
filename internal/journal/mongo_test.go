package journal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

func setupJournal(t *testing.T) *MongoJournal {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping mongo container test in short mode")
	}
	ctx := context.Background()

	container, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongoDB(ctx, uri, "journal_test")
	require.NoError(t, err)

	j := NewMongoJournal(db)
	require.NoError(t, j.CreateIndexes(ctx))
	return j
}

func TestMongoJournal_RecordAndQuery(t *testing.T) {
	j := setupJournal(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, j.Record(ctx, Attempt{Authority: "A1", Operation: "authorize", Amount: 1000, Outcome: "ok", CreatedAt: base}))
	require.NoError(t, j.Record(ctx, Attempt{Authority: "A1", Operation: "verify", Amount: 1000, Code: 100, RefID: "77", Outcome: "accepted", CreatedAt: base.Add(time.Second)}))
	require.NoError(t, j.Record(ctx, Attempt{Authority: "A2", Operation: "authorize", Amount: 5, Outcome: "ok"}))

	got, err := j.ByAuthority(ctx, "A1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "authorize", got[0].Operation)
	assert.Equal(t, "verify", got[1].Operation)
	assert.Equal(t, 100, got[1].Code)
	assert.Equal(t, "77", got[1].RefID)
}

func TestNop(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Nop{}.Record(context.Background(), Attempt{}))
}
