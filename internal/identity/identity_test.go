package identity

import "testing"

func TestEnsureGuestProfileIsStableForDevice(t *testing.T) {
	store := NewMemStore()
	first, err := store.EnsureGuestProfile("device-1")
	if err != nil {
		t.Fatalf("EnsureGuestProfile: %v", err)
	}
	second, err := store.EnsureGuestProfile("device-1")
	if err != nil {
		t.Fatalf("EnsureGuestProfile: %v", err)
	}
	if first.ProfileID != second.ProfileID {
		t.Fatalf("expected stable profile id, got %q then %q", first.ProfileID, second.ProfileID)
	}
}

func TestVerifyEmailCodeRejectsWrongCode(t *testing.T) {
	store := NewMemStore()
	profile, _ := store.EnsureGuestProfile("device-1")
	if err := store.CreatePendingLinkedAccount(profile.ProfileID, "user@example.com", "hunter2"); err != nil {
		t.Fatalf("CreatePendingLinkedAccount: %v", err)
	}
	if _, err := store.VerifyEmailCode(profile.ProfileID, "wrong"); err != ErrVerificationInvalid {
		t.Fatalf("expected ErrVerificationInvalid, got %v", err)
	}
	verified, err := store.VerifyEmailCode(profile.ProfileID, "000000")
	if err != nil {
		t.Fatalf("VerifyEmailCode: %v", err)
	}
	if !verified.EmailVerified || verified.IsGuest {
		t.Fatalf("expected verified non-guest profile, got %+v", verified)
	}
}

func TestAddFriendRejectsSelfAndDuplicates(t *testing.T) {
	store := NewMemStore()
	a, _ := store.EnsureGuestProfile("device-a")
	b, _ := store.EnsureGuestProfile("device-b")

	if err := store.AddFriend(a.ProfileID, a.ProfileID); err != ErrFriendRequestSelf {
		t.Fatalf("expected ErrFriendRequestSelf, got %v", err)
	}
	if err := store.AddFriend(a.ProfileID, b.ProfileID); err != nil {
		t.Fatalf("AddFriend: %v", err)
	}
	if err := store.AddFriend(a.ProfileID, b.ProfileID); err != ErrFriendAlreadyAdded {
		t.Fatalf("expected ErrFriendAlreadyAdded, got %v", err)
	}

	friends, err := store.ListFriends(a.ProfileID)
	if err != nil {
		t.Fatalf("ListFriends: %v", err)
	}
	if len(friends) != 1 || friends[0].ProfileID != b.ProfileID {
		t.Fatalf("unexpected friends list: %+v", friends)
	}
}
