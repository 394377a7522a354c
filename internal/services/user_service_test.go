package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/workscout/go-marketplace-backend/internal/domain"
)

func TestUserRegister_ValidationAndDuplicate(t *testing.T) {
	db := newServiceDB(t)
	svc := NewUserService(db)
	ctx := context.Background()

	if _, err := svc.Register(ctx, 0, RegisterInput{Role: domain.RoleCustomer, FirstName: "A"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("zero telegram id should fail, got %v", err)
	}
	if _, err := svc.Register(ctx, 10, RegisterInput{Role: "boss", FirstName: "A"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("unknown role should fail, got %v", err)
	}
	if _, err := svc.Register(ctx, 10, RegisterInput{Role: domain.RoleAdmin, FirstName: "A"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("self-registering as admin should fail, got %v", err)
	}
	if _, err := svc.Register(ctx, 10, RegisterInput{Role: domain.RoleCustomer, FirstName: "  "}); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank first name should fail, got %v", err)
	}

	u, err := svc.Register(ctx, 10, RegisterInput{
		Role: domain.RoleExecutor, FirstName: "Igor", Username: "igor_fix",
		City: "Moscow", Specializations: []string{"plumbing", "electrics"},
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.ID == 0 || u.Role != domain.RoleExecutor || len(u.Specializations) != 2 {
		t.Fatalf("unexpected user: %+v", u)
	}

	if _, err := svc.Register(ctx, 10, RegisterInput{Role: domain.RoleCustomer, FirstName: "Igor"}); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestUserUpdate_Partial(t *testing.T) {
	db := newServiceDB(t)
	svc := NewUserService(db)
	ctx := context.Background()

	u, err := svc.Register(ctx, 10, RegisterInput{Role: domain.RoleExecutor, FirstName: "Igor", City: "Moscow"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, err := svc.Update(ctx, u, UpdateInput{City: str("Kazan")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.City != "Kazan" || got.FirstName != "Igor" {
		t.Fatalf("partial update broke fields: %+v", got)
	}

	if _, err := svc.Update(ctx, u, UpdateInput{FirstName: str("  ")}); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank first name should fail, got %v", err)
	}
}

func TestUserGetProfile_WithRating(t *testing.T) {
	db := newServiceDB(t)
	svc := NewUserService(db)
	ctx := context.Background()

	target := mkUser(t, db, domain.RoleExecutor, 20)
	author := mkUser(t, db, domain.RoleCustomer, 21)
	for i, rating := range []int{5, 4, 4} {
		rv := &domain.Review{
			OrderID: int64(i + 1), AuthorID: author.ID, TargetUserID: target.ID,
			Rating: rating, Text: "ok!", Status: domain.ReviewStatusApproved,
		}
		if err := db.Create(rv).Error; err != nil {
			t.Fatalf("seed review: %v", err)
		}
	}

	mkOrder(t, db, domain.Order{CustomerID: author.ID, ExecutorID: &target.ID, Status: domain.OrderStatusDone})
	mkOrder(t, db, domain.Order{CustomerID: target.ID, Status: domain.OrderStatusDone})
	mkOrder(t, db, domain.Order{CustomerID: target.ID}) // still active, not counted

	p, err := svc.GetProfile(ctx, target.ID)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if p.User.ID != target.ID || p.Rating.Count != 3 || p.Rating.Average != 4.3 {
		t.Fatalf("unexpected profile: %+v rating %+v", p.User, p.Rating)
	}
	if p.OrdersCompleted != 1 || p.OrdersCreated != 1 {
		t.Fatalf("unexpected order counters: %+v", p)
	}

	if _, err := svc.GetProfile(ctx, 9999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

// fakeAvatarSource serves one static photo and counts fetches.
type fakeAvatarSource struct {
	fetches int
	data    []byte
	ct      string
	err     error
}

func (f *fakeAvatarSource) FetchUserPhoto(ctx context.Context, telegramID int64) ([]byte, string, error) {
	f.fetches++
	return f.data, f.ct, f.err
}

type fakeAvatarStore struct{ saves int }

func (f *fakeAvatarStore) SaveAvatar(userID int64, data []byte, ext string) (string, error) {
	f.saves++
	return "/media/avatars/u1.jpg", nil
}

func (f *fakeAvatarStore) ExtForContentType(ct string) (string, bool) {
	if ct == "image/jpeg" {
		return "jpg", true
	}
	return "", false
}

func TestRefreshAvatar_RespectsInterval(t *testing.T) {
	db := newServiceDB(t)
	src := &fakeAvatarSource{data: []byte("jpeg"), ct: "image/jpeg"}
	store := &fakeAvatarStore{}
	svc := NewUserService(db)
	svc.Avatars = src
	svc.Media = store

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return now }

	u := mkUser(t, db, domain.RoleExecutor, 30)
	svc.RefreshAvatar(context.Background(), u)
	if src.fetches != 1 || store.saves != 1 {
		t.Fatalf("expected one fetch and save, got %d/%d", src.fetches, store.saves)
	}
	if u.AvatarURL == "" || u.AvatarUpdatedAt == nil {
		t.Fatalf("avatar not recorded: %+v", u)
	}

	// Within the interval nothing happens.
	now = now.Add(12 * time.Hour)
	svc.RefreshAvatar(context.Background(), u)
	if src.fetches != 1 {
		t.Fatalf("refreshed too early: %d fetches", src.fetches)
	}

	// After the interval the photo is fetched again.
	now = now.Add(13 * time.Hour)
	svc.RefreshAvatar(context.Background(), u)
	if src.fetches != 2 {
		t.Fatalf("expected second fetch, got %d", src.fetches)
	}
}

func TestRefreshAvatar_FetchFailureIsSoft(t *testing.T) {
	db := newServiceDB(t)
	src := &fakeAvatarSource{err: errors.New("bot api down")}
	svc := NewUserService(db)
	svc.Avatars = src
	svc.Media = &fakeAvatarStore{}

	u := mkUser(t, db, domain.RoleExecutor, 31)
	svc.RefreshAvatar(context.Background(), u)
	if u.AvatarURL != "" {
		t.Fatalf("failed fetch must not set avatar: %+v", u)
	}
	// The failed attempt is not recorded, so the next call retries.
	if u.AvatarUpdatedAt != nil {
		t.Fatalf("failed fetch must not stamp the attempt")
	}
}

func TestRefreshAvatar_DisabledWithoutSource(t *testing.T) {
	db := newServiceDB(t)
	svc := NewUserService(db)

	u := mkUser(t, db, domain.RoleExecutor, 32)
	// Must be a no-op, not a panic.
	svc.RefreshAvatar(context.Background(), u)
	if u.AvatarUpdatedAt != nil {
		t.Fatalf("disabled refresh touched user: %+v", u)
	}
}
