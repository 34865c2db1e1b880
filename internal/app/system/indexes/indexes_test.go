package indexes_test

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dalemusser/pulsehub/internal/app/system/indexes"
	"github.com/dalemusser/pulsehub/internal/testutil"
)

// indexNames lists the names of all indexes on a collection.
func indexNames(t *testing.T, ctx context.Context, coll *mongo.Collection) map[string]bool {
	t.Helper()

	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = true
		}
	}
	return names
}

func TestEnsureAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// EnsureAll should succeed on a clean database
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}

	// Second call should also succeed (idempotent)
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesUserIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	names := indexNames(t, ctx, db.Collection("users"))
	for _, name := range []string{
		"uniq_users_email",
		"idx_users_displaynameci__id",
	} {
		if !names[name] {
			t.Errorf("expected index %q to exist on users collection", name)
		}
	}
}

func TestEnsureAll_CreatesPostIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	names := indexNames(t, ctx, db.Collection("posts"))
	for _, name := range []string{
		"idx_posts_created__id",
		"idx_posts_author_created",
	} {
		if !names[name] {
			t.Errorf("expected index %q to exist on posts collection", name)
		}
	}
}

func TestEnsureAll_CreatesCommentIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	names := indexNames(t, ctx, db.Collection("comments"))
	for _, name := range []string{
		"idx_comments_post_created__id",
		"idx_comments_author",
	} {
		if !names[name] {
			t.Errorf("expected index %q to exist on comments collection", name)
		}
	}
}

func TestEnsureAll_CreatesLoginRecordIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	names := indexNames(t, ctx, db.Collection("login_records"))
	for _, name := range []string{
		"idx_logins_user_created",
		"idx_logins_created",
	} {
		if !names[name] {
			t.Errorf("expected index %q to exist on login_records collection", name)
		}
	}
}

func TestEnsureAll_UniqueIndexEnforced(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	_, err := db.Collection("users").InsertOne(ctx, bson.M{"email": "dup@example.com", "display_name": "First"})
	if err != nil {
		t.Fatalf("Insert user failed: %v", err)
	}

	// Second insert with the same email must trip the unique index.
	_, err = db.Collection("users").InsertOne(ctx, bson.M{"email": "dup@example.com", "display_name": "Second"})
	if err == nil {
		t.Error("expected duplicate key error for unique index on users.email")
	}
}
