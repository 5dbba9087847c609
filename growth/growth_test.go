package growth

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"growe/models"
)

func TestClampFrequency(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{-3, 1},
		{0, 1},
		{1, 1},
		{3, 3},
		{7, 7},
		{8, 7},
		{100, 7},
	}
	for _, tt := range tests {
		if got := ClampFrequency(tt.in); got != tt.want {
			t.Errorf("ClampFrequency(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestJoinCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := JoinCode()
		if err != nil {
			t.Fatalf("JoinCode failed: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("join code %q has length %d, want 6", code, len(code))
		}
		for _, r := range code {
			if !((r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
				t.Fatalf("join code %q contains invalid character %q", code, r)
			}
		}
		seen[code] = true
	}
	// 50 draws from a 36^6 space colliding into a single value would mean
	// the generator is broken.
	if len(seen) < 2 {
		t.Error("join codes show no variation")
	}
}

func TestRequiredMajority(t *testing.T) {
	tests := []struct {
		members int
		want    int
	}{
		{1, 0},
		{2, 1},
		{3, 1},
		{4, 2},
		{5, 2},
		{10, 5},
	}
	for _, tt := range tests {
		if got := RequiredMajority(tt.members); got != tt.want {
			t.Errorf("RequiredMajority(%d) = %d, want %d", tt.members, got, tt.want)
		}
	}
}

func TestMeetsMajority(t *testing.T) {
	// With 2 members the threshold is 1: a single approve suffices.
	if !MeetsMajority(1, 2) {
		t.Error("MeetsMajority(1, 2) = false, want true")
	}
	// With 5 members the threshold is 2.
	if MeetsMajority(1, 5) {
		t.Error("MeetsMajority(1, 5) = true, want false")
	}
	if !MeetsMajority(2, 5) {
		t.Error("MeetsMajority(2, 5) = false, want true")
	}
}

func TestGrowState(t *testing.T) {
	tests := []struct {
		name                         string
		approved, frequency, members int
		want                         int
	}{
		{"nothing approved", 0, 3, 2, 0},
		{"partial", 2, 3, 2, 2},
		{"full bar", 6, 3, 2, 5},
		{"over full bar stays capped", 20, 3, 2, 5},
		{"zero members", 4, 3, 0, 0},
		{"solo group", 7, 7, 1, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GrowState(tt.approved, tt.frequency, tt.members); got != tt.want {
				t.Errorf("GrowState(%d, %d, %d) = %d, want %d",
					tt.approved, tt.frequency, tt.members, got, tt.want)
			}
		})
	}
}

func TestGrowStateMonotone(t *testing.T) {
	prev := 0
	for approved := 0; approved <= 30; approved++ {
		got := GrowState(approved, 3, 2)
		if got < prev {
			t.Fatalf("GrowState decreased from %d to %d at approved=%d", prev, got, approved)
		}
		prev = got
	}
}

func TestDecayDate(t *testing.T) {
	planted := time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)
	if got, want := DecayDate(planted), "Mar 17, 2025"; got != want {
		t.Errorf("DecayDate = %q, want %q", got, want)
	}
}

func TestDecayProgress(t *testing.T) {
	planted := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		days float64
		want string
	}{
		{0, "0.00"},
		{1, "15.00"},
		{2, "30.00"},
		{6, "90.00"},
		{7, "0.00"},
		{10, "0.00"},
	}
	for _, tt := range tests {
		now := planted.Add(time.Duration(tt.days * 24 * float64(time.Hour)))
		if got := DecayProgress(planted, now); got != tt.want {
			t.Errorf("DecayProgress at day %v = %q, want %q", tt.days, got, tt.want)
		}
	}
}

func TestDecayProgressCap(t *testing.T) {
	planted := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	// 6.9 days is inside the window but past the linear 100% mark.
	now := planted.Add(time.Duration(6.9 * 24 * float64(time.Hour)))
	if got := DecayProgress(planted, now); got != "100.00" {
		t.Errorf("DecayProgress near window end = %q, want capped at 100.00", got)
	}
}

func TestIsMember(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	outsider := primitive.NewObjectID()

	members := []primitive.ObjectID{a, b}
	if !IsMember(members, a) || !IsMember(members, b) {
		t.Error("member not recognized")
	}
	if IsMember(members, outsider) {
		t.Error("outsider passed the membership check")
	}
	if IsMember(nil, a) {
		t.Error("empty member list admitted someone")
	}
}

func TestShouldApprove(t *testing.T) {
	approves := func(n int) []primitive.ObjectID {
		ids := make([]primitive.ObjectID, n)
		for i := range ids {
			ids[i] = primitive.NewObjectID()
		}
		return ids
	}

	tests := []struct {
		name     string
		approves int
		members  int
		approved bool
		want     bool
	}{
		{"below threshold", 1, 5, false, false},
		{"at threshold", 2, 5, false, true},
		{"above threshold", 4, 5, false, true},
		{"single approve in a pair", 1, 2, false, true},
		{"already approved never fires again", 4, 5, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &models.Log{VoteApprove: approves(tt.approves), Approved: tt.approved}
			if got := ShouldApprove(l, tt.members); got != tt.want {
				t.Errorf("ShouldApprove(%d approves, %d members, approved=%v) = %v, want %v",
					tt.approves, tt.members, tt.approved, got, tt.want)
			}
		})
	}
}

func TestIsPendingFor(t *testing.T) {
	voter := primitive.NewObjectID()
	other := primitive.NewObjectID()

	l := &models.Log{
		VoteApprove: []primitive.ObjectID{other},
	}
	if !IsPendingFor(l, voter) {
		t.Error("log with no vote from member should be pending")
	}

	l.VoteDeny = append(l.VoteDeny, voter)
	if IsPendingFor(l, voter) {
		t.Error("log with a deny vote from member should not be pending")
	}

	l2 := &models.Log{VoteUnsure: []primitive.ObjectID{voter}}
	if IsPendingFor(l2, voter) {
		t.Error("unsure vote still counts as having voted")
	}
}
