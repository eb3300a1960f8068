package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/geneva/internal/model"
)

// クエリ履歴の追記と挿入順での取得を検証
func TestPostgresQueryRepo_CreateAndList(t *testing.T) {
	db := setupRepoTestDB(t)
	userRepo := NewPostgresUserRepo(db)
	queryRepo := NewPostgresQueryRepo(db)
	ctx := context.Background()

	user := newTestUser("alice", "k1")
	if err := userRepo.Create(ctx, user); err != nil {
		t.Fatalf("ユーザー登録に失敗: %v", err)
	}

	base := time.Now().UTC().Truncate(time.Microsecond)
	first := &model.UserQuery{
		ID:                  uuid.NewString(),
		UserID:              user.ID,
		Gene:                "BRCA1",
		Disease:             "cancer",
		AssociationResponse: json.RawMessage(`{"summary": "BRCA1-cancer-association"}`),
		SummaryResponse:     json.RawMessage(`{"summary_text":"T","key_findings":[],"confidence":null}`),
		CreatedAt:           base,
	}
	second := &model.UserQuery{
		ID:                  uuid.NewString(),
		UserID:              user.ID,
		Gene:                "TP53",
		Disease:             "glioma",
		AssociationResponse: json.RawMessage(`{"id":"EFO_0005543"}`),
		CreatedAt:           base.Add(time.Second),
	}

	if err := queryRepo.Create(ctx, first); err != nil {
		t.Fatalf("1件目のCreateが失敗: %v", err)
	}
	if err := queryRepo.Create(ctx, second); err != nil {
		t.Fatalf("2件目のCreateが失敗: %v", err)
	}

	queries, err := queryRepo.ListByUserID(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListByUserID failed: %v", err)
	}

	if len(queries) != 2 {
		t.Fatalf("件数 = %d, want 2", len(queries))
	}
	if queries[0].Gene != "BRCA1" || queries[1].Gene != "TP53" {
		t.Errorf("挿入順で返っていない: %s, %s", queries[0].Gene, queries[1].Gene)
	}

	// JSONBは正規化されるため、バイト列ではなく意味的に比較する
	var got, want map[string]any
	if err := json.Unmarshal(queries[0].AssociationResponse, &got); err != nil {
		t.Fatalf("association_responseのパースに失敗: %v", err)
	}
	if err := json.Unmarshal(first.AssociationResponse, &want); err != nil {
		t.Fatalf("期待値のパースに失敗: %v", err)
	}
	if got["summary"] != want["summary"] {
		t.Errorf("association_response = %v, want %v", got, want)
	}
}

// summary_responseなしの履歴はNULLで保存され、nilで返ることを検証
func TestPostgresQueryRepo_Create_WithoutSummary(t *testing.T) {
	db := setupRepoTestDB(t)
	userRepo := NewPostgresUserRepo(db)
	queryRepo := NewPostgresQueryRepo(db)
	ctx := context.Background()

	user := newTestUser("bob", "")
	if err := userRepo.Create(ctx, user); err != nil {
		t.Fatalf("ユーザー登録に失敗: %v", err)
	}

	q := &model.UserQuery{
		ID:                  uuid.NewString(),
		UserID:              user.ID,
		Gene:                "BRCA2",
		Disease:             "breast carcinoma",
		AssociationResponse: json.RawMessage(`{"id":"EFO_0000305"}`),
		CreatedAt:           time.Now().UTC(),
	}
	if err := queryRepo.Create(ctx, q); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	queries, err := queryRepo.ListByUserID(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListByUserID failed: %v", err)
	}
	if len(queries) != 1 {
		t.Fatalf("件数 = %d, want 1", len(queries))
	}
	if queries[0].SummaryResponse != nil {
		t.Errorf("SummaryResponse = %s, want nil", queries[0].SummaryResponse)
	}
}

// 別ユーザーの履歴が混ざらないことを検証
func TestPostgresQueryRepo_ListByUserID_IsolatedPerUser(t *testing.T) {
	db := setupRepoTestDB(t)
	userRepo := NewPostgresUserRepo(db)
	queryRepo := NewPostgresQueryRepo(db)
	ctx := context.Background()

	alice := newTestUser("alice", "k1")
	bob := newTestUser("bob", "k2")
	for _, u := range []*model.User{alice, bob} {
		if err := userRepo.Create(ctx, u); err != nil {
			t.Fatalf("ユーザー登録に失敗: %v", err)
		}
	}

	q := &model.UserQuery{
		ID:                  uuid.NewString(),
		UserID:              alice.ID,
		Gene:                "BRCA1",
		Disease:             "cancer",
		AssociationResponse: json.RawMessage(`{}`),
		CreatedAt:           time.Now().UTC(),
	}
	if err := queryRepo.Create(ctx, q); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	bobQueries, err := queryRepo.ListByUserID(ctx, bob.ID)
	if err != nil {
		t.Fatalf("ListByUserID failed: %v", err)
	}
	if len(bobQueries) != 0 {
		t.Errorf("bobの履歴件数 = %d, want 0", len(bobQueries))
	}

	aliceQueries, err := queryRepo.ListByUserID(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListByUserID failed: %v", err)
	}
	if len(aliceQueries) != 1 {
		t.Errorf("aliceの履歴件数 = %d, want 1", len(aliceQueries))
	}
}
