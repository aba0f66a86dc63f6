package agent

import "testing"

func TestSelectTarget_Nearest(t *testing.T) {
	w := &fakeWorld{combatants: []Combatant{
		{ID: 1, Team: 0, Position: V(0, 0), Health: 100},
		{ID: 2, Team: 1, Position: V(20, 0), Health: 100},
		{ID: 3, Team: 1, Position: V(-5, 0), Health: 100},
	}}
	c, ok := SelectTarget(w, V(0, 0), 0)
	if !ok || c.ID != 3 {
		t.Fatalf("expected nearest enemy 3, got %+v ok=%v", c, ok)
	}
}

func TestSelectTarget_SkipsDeadAndFriendly(t *testing.T) {
	w := &fakeWorld{combatants: []Combatant{
		{ID: 2, Team: 0, Position: V(1, 0), Health: 100},
		{ID: 3, Team: 1, Position: V(2, 0), Health: 0},
		{ID: 4, Team: 2, Position: V(9, 0), Health: 10},
	}}
	c, ok := SelectTarget(w, V(0, 0), 0)
	if !ok || c.ID != 4 {
		t.Fatalf("expected living enemy 4, got %+v ok=%v", c, ok)
	}
}

func TestSelectTarget_TieKeepsFirst(t *testing.T) {
	w := &fakeWorld{combatants: []Combatant{
		{ID: 5, Team: 1, Position: V(3, 0), Health: 100},
		{ID: 6, Team: 1, Position: V(-3, 0), Health: 100},
	}}
	c, _ := SelectTarget(w, V(0, 0), 0)
	if c.ID != 5 {
		t.Fatalf("tie should keep enumeration order, got %d", c.ID)
	}
}

func TestSelectTarget_None(t *testing.T) {
	w := &fakeWorld{combatants: []Combatant{{ID: 1, Team: 0, Health: 100}}}
	if _, ok := SelectTarget(w, V(0, 0), 0); ok {
		t.Fatal("no enemies should yield no target")
	}
}
