package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dosada05/prediction-league/repositories"
)

func newSquadFixture() (*fakeSquadRepo, *fakeInviteRepo, SquadService) {
	squadRepo := newFakeSquadRepo()
	inviteRepo := newFakeInviteRepo()
	return squadRepo, inviteRepo, NewSquadService(squadRepo, inviteRepo)
}

func TestCreateSquadAddsOwnerAsMember(t *testing.T) {
	squadRepo, _, svc := newSquadFixture()
	ctx := context.Background()

	squad, err := svc.Create(ctx, 7, SquadInput{Name: "  The Firm  "})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if squad.Name != "The Firm" {
		t.Errorf("name = %q, want trimmed", squad.Name)
	}
	if squad.OwnerID != 7 {
		t.Errorf("owner = %d, want 7", squad.OwnerID)
	}
	if len(squad.Members) != 1 || squad.Members[0].UserID != 7 {
		t.Errorf("members = %+v, want just the owner", squad.Members)
	}
	if got, _ := squadRepo.GetSquadIDByUser(ctx, 7); got != squad.ID {
		t.Errorf("owner membership points at squad %d, want %d", got, squad.ID)
	}
}

func TestCreateSquadValidation(t *testing.T) {
	_, _, svc := newSquadFixture()
	ctx := context.Background()

	if _, err := svc.Create(ctx, 1, SquadInput{Name: "   "}); !errors.Is(err, ErrSquadNameRequired) {
		t.Errorf("blank name: err = %v, want %v", err, ErrSquadNameRequired)
	}

	long := make([]byte, maxSquadNameLen+1)
	for i := range long {
		long[i] = 'x'
	}
	if _, err := svc.Create(ctx, 1, SquadInput{Name: string(long)}); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("overlong name: err = %v, want %v", err, ErrValidationFailed)
	}
}

func TestCreateSquadWhileAlreadyMember(t *testing.T) {
	_, _, svc := newSquadFixture()
	ctx := context.Background()

	if _, err := svc.Create(ctx, 1, SquadInput{Name: "First"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, 1, SquadInput{Name: "Second"}); !errors.Is(err, ErrUserAlreadyInSquad) {
		t.Errorf("err = %v, want %v", err, ErrUserAlreadyInSquad)
	}
}

func TestCreateSquadNameConflict(t *testing.T) {
	_, _, svc := newSquadFixture()
	ctx := context.Background()

	if _, err := svc.Create(ctx, 1, SquadInput{Name: "Taken"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, 2, SquadInput{Name: "Taken"}); !errors.Is(err, ErrSquadNameConflict) {
		t.Errorf("err = %v, want %v", err, ErrSquadNameConflict)
	}
}

func TestRenameRequiresOwner(t *testing.T) {
	_, _, svc := newSquadFixture()
	ctx := context.Background()

	squad, err := svc.Create(ctx, 1, SquadInput{Name: "Old"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Rename(ctx, squad.ID, 2, SquadInput{Name: "New"}); !errors.Is(err, ErrOwnerActionForbidden) {
		t.Errorf("stranger rename: err = %v, want %v", err, ErrOwnerActionForbidden)
	}

	renamed, err := svc.Rename(ctx, squad.ID, 1, SquadInput{Name: "New"})
	if err != nil {
		t.Fatalf("owner rename: %v", err)
	}
	if renamed.Name != "New" {
		t.Errorf("name = %q, want New", renamed.Name)
	}
}

func TestOwnerCannotLeaveOwnSquad(t *testing.T) {
	_, _, svc := newSquadFixture()
	ctx := context.Background()

	squad, err := svc.Create(ctx, 1, SquadInput{Name: "Home"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Leave(ctx, squad.ID, 1); !errors.Is(err, ErrCannotRemoveOwner) {
		t.Errorf("err = %v, want %v", err, ErrCannotRemoveOwner)
	}
	if err := svc.RemoveMember(ctx, squad.ID, 1, 1); !errors.Is(err, ErrCannotRemoveOwner) {
		t.Errorf("remove owner: err = %v, want %v", err, ErrCannotRemoveOwner)
	}
}

func TestJoinAndLeaveByInvite(t *testing.T) {
	_, inviteRepo, svc := newSquadFixture()
	ctx := context.Background()

	squad, err := svc.Create(ctx, 1, SquadInput{Name: "Open"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	invite, err := svc.CreateInvite(ctx, squad.ID, 1)
	if err != nil {
		t.Fatalf("CreateInvite: %v", err)
	}
	if invite.Token == "" {
		t.Fatal("invite has no token")
	}
	if until := time.Until(invite.ExpiresAt); until < 6*24*time.Hour || until > 8*24*time.Hour {
		t.Errorf("invite expires in %v, want about a week", until)
	}

	joined, err := svc.JoinByToken(ctx, invite.Token, 2)
	if err != nil {
		t.Fatalf("JoinByToken: %v", err)
	}
	if joined.ID != squad.ID {
		t.Errorf("joined squad %d, want %d", joined.ID, squad.ID)
	}
	if len(joined.Members) != 2 {
		t.Errorf("members = %d, want 2", len(joined.Members))
	}

	// Токен многоразовый: после первого вступления он остается рабочим.
	if _, err := svc.JoinByToken(ctx, invite.Token, 3); err != nil {
		t.Fatalf("second JoinByToken: %v", err)
	}
	if _, ok := inviteRepo.invites[invite.ID]; !ok {
		t.Error("invite was deleted after use")
	}

	if _, err := svc.JoinByToken(ctx, invite.Token, 2); !errors.Is(err, ErrUserAlreadyInSquad) {
		t.Errorf("rejoin: err = %v, want %v", err, ErrUserAlreadyInSquad)
	}

	if err := svc.Leave(ctx, squad.ID, 2); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	left, err := svc.GetByID(ctx, squad.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(left.Members) != 2 {
		t.Errorf("members after leave = %d, want 2", len(left.Members))
	}
}

func TestJoinByExpiredToken(t *testing.T) {
	_, inviteRepo, svc := newSquadFixture()
	ctx := context.Background()

	squad, err := svc.Create(ctx, 1, SquadInput{Name: "Stale"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	invite, err := svc.CreateInvite(ctx, squad.ID, 1)
	if err != nil {
		t.Fatalf("CreateInvite: %v", err)
	}
	inviteRepo.invites[invite.ID].ExpiresAt = time.Now().Add(-time.Hour)

	if _, err := svc.JoinByToken(ctx, invite.Token, 2); !errors.Is(err, ErrInviteExpired) {
		t.Errorf("err = %v, want %v", err, ErrInviteExpired)
	}
	if _, err := svc.JoinByToken(ctx, "no-such-token", 2); !errors.Is(err, ErrInviteNotFound) {
		t.Errorf("unknown token: err = %v, want %v", err, ErrInviteNotFound)
	}
}

func TestCreateInviteRetriesTokenCollision(t *testing.T) {
	_, inviteRepo, svc := newSquadFixture()
	ctx := context.Background()

	squad, err := svc.Create(ctx, 1, SquadInput{Name: "Retry"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	inviteRepo.createErr = []error{repositories.ErrInviteTokenConflict, repositories.ErrInviteTokenConflict}
	invite, err := svc.CreateInvite(ctx, squad.ID, 1)
	if err != nil {
		t.Fatalf("CreateInvite after collisions: %v", err)
	}
	if invite.ID == 0 {
		t.Error("invite was not persisted")
	}

	inviteRepo.createErr = []error{
		repositories.ErrInviteTokenConflict,
		repositories.ErrInviteTokenConflict,
		repositories.ErrInviteTokenConflict,
	}
	if _, err := svc.CreateInvite(ctx, squad.ID, 1); !errors.Is(err, ErrInviteTokenGeneration) {
		t.Errorf("exhausted retries: err = %v, want %v", err, ErrInviteTokenGeneration)
	}
}

func TestListInvitesFiltersExpired(t *testing.T) {
	_, inviteRepo, svc := newSquadFixture()
	ctx := context.Background()

	squad, err := svc.Create(ctx, 1, SquadInput{Name: "Housekeeping"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	fresh, err := svc.CreateInvite(ctx, squad.ID, 1)
	if err != nil {
		t.Fatalf("CreateInvite: %v", err)
	}
	stale, err := svc.CreateInvite(ctx, squad.ID, 1)
	if err != nil {
		t.Fatalf("CreateInvite: %v", err)
	}
	inviteRepo.invites[stale.ID].ExpiresAt = time.Now().Add(-time.Minute)

	invites, err := svc.ListInvites(ctx, squad.ID, 1)
	if err != nil {
		t.Fatalf("ListInvites: %v", err)
	}
	if len(invites) != 1 || invites[0].ID != fresh.ID {
		t.Errorf("invites = %+v, want only the fresh one", invites)
	}

	removed, err := svc.CleanupExpiredInvites(ctx)
	if err != nil {
		t.Fatalf("CleanupExpiredInvites: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
}

func TestRevokeInviteChecksSquad(t *testing.T) {
	_, _, svc := newSquadFixture()
	ctx := context.Background()

	first, err := svc.Create(ctx, 1, SquadInput{Name: "First"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := svc.Create(ctx, 2, SquadInput{Name: "Second"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	invite, err := svc.CreateInvite(ctx, first.ID, 1)
	if err != nil {
		t.Fatalf("CreateInvite: %v", err)
	}

	// Владелец другого клуба не может отозвать чужое приглашение.
	if err := svc.RevokeInvite(ctx, second.ID, invite.ID, 2); !errors.Is(err, ErrInviteNotFound) {
		t.Errorf("cross-squad revoke: err = %v, want %v", err, ErrInviteNotFound)
	}

	if err := svc.RevokeInvite(ctx, first.ID, invite.ID, 1); err != nil {
		t.Fatalf("RevokeInvite: %v", err)
	}
	if _, err := svc.JoinByToken(ctx, invite.Token, 3); !errors.Is(err, ErrInviteNotFound) {
		t.Errorf("join after revoke: err = %v, want %v", err, ErrInviteNotFound)
	}
}
