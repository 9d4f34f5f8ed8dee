package types

import (
	"testing"
)

func TestValidateRequiresID(t *testing.T) {
	item := &WorkItem{ItemType: TypeEpic, Status: StatusPending}
	if err := item.Validate(); err == nil {
		t.Error("expected error for missing id")
	}
}

func TestValidateParentRules(t *testing.T) {
	story := &WorkItem{ID: "S1", ItemType: TypeStory, Status: StatusPending}
	if err := story.Validate(); err == nil {
		t.Error("expected error: story without parent epic")
	}
	story.ParentID = "E1"
	if err := story.Validate(); err != nil {
		t.Errorf("story with parent should validate: %v", err)
	}

	epic := &WorkItem{ID: "E1", ItemType: TypeEpic, Status: StatusPending, ParentID: "X"}
	if err := epic.Validate(); err == nil {
		t.Error("expected error: epic cannot declare a parent")
	}
}

func TestValidateRejectsForeignStatus(t *testing.T) {
	item := &WorkItem{ID: "S1", ItemType: TypeStory, ParentID: "E1", Status: StatusRunning}
	if err := item.Validate(); err == nil {
		t.Error("expected error: run status on a story")
	}
}

func TestValidateNegativePoints(t *testing.T) {
	item := &WorkItem{ID: "E1", ItemType: TypeEpic, Status: StatusPending, Points: -3}
	if err := item.Validate(); err == nil {
		t.Error("expected error for negative points")
	}
}

func TestSetDefaults(t *testing.T) {
	cases := map[ItemType]Status{
		TypeEpic:   StatusPending,
		TypeStory:  StatusPending,
		TypeSprint: StatusPlanned,
		TypeRun:    StatusQueued,
	}
	for itemType, want := range cases {
		item := &WorkItem{ID: "x", ItemType: itemType}
		item.SetDefaults()
		if item.Status != want {
			t.Errorf("%s: default status = %s, want %s", itemType, item.Status, want)
		}
	}
}

func TestParentType(t *testing.T) {
	if got := TypeStory.ParentType(); got != TypeEpic {
		t.Errorf("story parent = %s, want epic", got)
	}
	if got := TypeRun.ParentType(); got != TypeStory {
		t.Errorf("run parent = %s, want story", got)
	}
	if TypeEpic.HasParent() || TypeSprint.HasParent() {
		t.Error("epic and sprint must not have parents")
	}
	if got := TypeEpic.ChildType(); got != TypeStory {
		t.Errorf("epic child = %s, want story", got)
	}
	if got := TypeStory.ChildType(); got != TypeRun {
		t.Errorf("story child = %s, want run", got)
	}
	if TypeRun.ChildType() != "" || TypeSprint.ChildType() != "" {
		t.Error("run and sprint must not have children")
	}
}
