package battle

import (
	"strings"
	"testing"
)

const requestPayload = `{
	"active":[{"moves":[
		{"move":"Earthquake","id":"earthquake","pp":16,"maxpp":16,"disabled":false},
		{"move":"Fire Blast","id":"fireblast","pp":8,"maxpp":8,"disabled":true}
	],"trapped":false}],
	"side":{"name":"BigBot","id":"p1","pokemon":[
		{"ident":"p1: Garchomp","details":"Garchomp, L84, M","condition":"211/250","active":true,
		 "moves":["earthquake","fireblast","swordsdance","dragonclaw"]},
		{"ident":"p1: Rotom","details":"Rotom-Wash, L82","condition":"190/230 par","active":false,
		 "moves":["voltswitch","hydropump","willowisp","protect"]},
		{"ident":"p1: Corviknight","details":"Corviknight, L80","condition":"0 fnt","active":false,
		 "moves":["bravebird","roost","uturn","defog"]}
	]},
	"rqid":7
}`

func TestApplyRequest(t *testing.T) {
	b := newSession(t)
	required, err := b.Apply(msg("|request|" + requestPayload))
	if err != nil {
		t.Fatal(err)
	}
	if !required {
		t.Error("non-wait request did not demand an action")
	}
	if b.RQID != 7 {
		t.Errorf("rqid = %d", b.RQID)
	}

	a := b.User.Active
	if a == nil || a.Species != "garchomp" {
		t.Fatalf("active = %+v", a)
	}
	if a.HP != 211 || a.MaxHP != 250 {
		t.Errorf("active hp = %d/%d", a.HP, a.MaxHP)
	}
	if a.Index != 1 {
		t.Errorf("active slot = %d", a.Index)
	}
	// The active slot carries the authoritative pp and disabled flags.
	if len(a.Moves) != 2 {
		t.Fatalf("active moves = %v", a.Moves)
	}
	if a.Moves[0].ID != "earthquake" || a.Moves[0].PP != 16 {
		t.Errorf("move 0 = %+v", a.Moves[0])
	}
	if !a.Moves[1].Disabled {
		t.Error("disabled flag lost")
	}

	if len(b.User.Reserve) != 2 {
		t.Fatalf("reserve = %d", len(b.User.Reserve))
	}
	if b.User.Reserve[0].Status != "par" {
		t.Errorf("rotom status = %q", b.User.Reserve[0].Status)
	}
	if b.User.Reserve[1].Alive() {
		t.Error("fainted corviknight counted alive")
	}
	if b.User.CountAlive() != 2 {
		t.Errorf("alive = %d", b.User.CountAlive())
	}
}

func TestApplyRequestWait(t *testing.T) {
	b := newSession(t)
	payload := `{"wait":true,"side":{"id":"p1","pokemon":[
		{"ident":"p1: Garchomp","details":"Garchomp, L84","condition":"211/250","active":true,"moves":["earthquake"]}
	]},"rqid":8}`
	required, err := b.Apply(msg("|request|" + payload))
	if err != nil {
		t.Fatal(err)
	}
	if required {
		t.Error("wait request demanded an action")
	}
	if !b.Wait {
		t.Error("wait flag not set")
	}
}

func TestApplyRequestForceSwitch(t *testing.T) {
	b := newSession(t)
	payload := `{"forceSwitch":[true],"side":{"id":"p1","pokemon":[
		{"ident":"p1: Garchomp","details":"Garchomp, L84","condition":"0 fnt","active":true,"moves":["earthquake"]},
		{"ident":"p1: Rotom","details":"Rotom-Wash, L82","condition":"230/230","active":false,"moves":["voltswitch"]}
	]},"rqid":9}`
	if _, err := b.Apply(msg("|request|" + payload)); err != nil {
		t.Fatal(err)
	}
	if !b.ForceSwitch {
		t.Error("force switch not set")
	}
}

func TestApplyRequestMalformed(t *testing.T) {
	b := newSession(t)
	if _, err := b.Apply(msg("|request|{not json")); err == nil {
		t.Error("malformed payload accepted")
	}
}

func TestOpponentRosterDiscovery(t *testing.T) {
	b := newSession(t)
	b.Apply(msg("|switch|p2a: Garchomp|Garchomp, L84, M|100/100"))
	if b.Opponent.Active == nil || b.Opponent.Active.Species != "garchomp" {
		t.Fatalf("opponent active = %+v", b.Opponent.Active)
	}
	if b.Opponent.Active.Level != 84 {
		t.Errorf("level = %d", b.Opponent.Active.Level)
	}

	b.Apply(msg("|switch|p2a: Rotom|Rotom-Wash, L82|100/100"))
	if b.Opponent.Active.Species != "rotomwash" {
		t.Errorf("active after switch = %q", b.Opponent.Active.Species)
	}
	if len(b.Opponent.Reserve) != 1 || b.Opponent.Reserve[0].Species != "garchomp" {
		t.Fatalf("reserve = %+v", b.Opponent.Reserve)
	}

	// Switching back must not duplicate the roster entry.
	b.Apply(msg("|switch|p2a: Garchomp|Garchomp, L84, M|76/100"))
	if len(b.Opponent.Reserve) != 1 {
		t.Fatalf("roster duplicated: %+v", b.Opponent.Reserve)
	}
	if b.Opponent.Active.HP != 76 {
		t.Errorf("hp not updated on re-entry: %d", b.Opponent.Active.HP)
	}
}

func TestOpponentMoveReveal(t *testing.T) {
	b := newSession(t)
	b.Apply(msg("|switch|p2a: Garchomp|Garchomp, L84, M|100/100"))
	b.Apply(msg("|move|p2a: Garchomp|Earthquake|p1a: Rotom"))
	b.Apply(msg("|move|p2a: Garchomp|Earthquake|p1a: Rotom"))
	if got := len(b.Opponent.Active.Moves); got != 1 {
		t.Fatalf("revealed moves = %d, want 1", got)
	}
	if b.Opponent.Active.Moves[0].ID != "earthquake" {
		t.Errorf("move = %q", b.Opponent.Active.Moves[0].ID)
	}
}

func TestFaintAndDamage(t *testing.T) {
	b := newSession(t)
	b.Apply(msg("|switch|p2a: Garchomp|Garchomp, L84, M|100/100"))
	b.Apply(msg("|-damage|p2a: Garchomp|42/100 brn"))
	if b.Opponent.Active.HP != 42 || b.Opponent.Active.Status != "brn" {
		t.Errorf("after damage = %+v", b.Opponent.Active)
	}
	b.Apply(msg("|faint|p2a: Garchomp"))
	if b.Opponent.Active.Alive() {
		t.Error("fainted active still alive")
	}
}

func TestInactiveClock(t *testing.T) {
	b := newSession(t)
	b.Apply(msg("|inactive|BigBot has 45 seconds left."))
	if b.TimeRemaining != 45 {
		t.Errorf("clock = %d, want 45", b.TimeRemaining)
	}
	// The opponent's clock is not ours.
	b.Apply(msg("|inactive|Opp has 10 seconds left."))
	if b.TimeRemaining != 45 {
		t.Errorf("clock overwritten by opponent timer: %d", b.TimeRemaining)
	}
}

func TestTurnAndPhase(t *testing.T) {
	b := newSession(t)
	b.Apply(msg("|start"))
	if b.Phase != PhaseInProgress {
		t.Errorf("phase = %v", b.Phase)
	}
	b.Apply(msg("|turn|12"))
	if b.Turn != 12 {
		t.Errorf("turn = %d", b.Turn)
	}
}

func TestTeamPreviewPokes(t *testing.T) {
	b := newSession(t)
	b.Apply(msg(
		"|clearpoke",
		"|poke|p1|Garchomp, L84, M|",
		"|poke|p2|Kingambit, L78|",
		"|poke|p2|Gholdengo, L80|",
		"|teampreview",
	))
	if b.Phase != PhaseTeamPreview {
		t.Errorf("phase = %v", b.Phase)
	}
	if len(b.Opponent.Reserve) != 2 {
		t.Fatalf("opponent preview roster = %+v", b.Opponent.Reserve)
	}
	if b.Opponent.Reserve[0].Species != "kingambit" {
		t.Errorf("first poke = %q", b.Opponent.Reserve[0].Species)
	}
}

func TestUpdateTendencies(t *testing.T) {
	b := newSession(t)
	b.UpdateTendencies(msg("|move|p2a: Garchomp|Protect|p2a: Garchomp"))
	b.UpdateTendencies(msg("|switch|p2a: Rotom|Rotom-Wash, L82|100/100"))
	b.UpdateTendencies(msg("|move|p1a: Corviknight|Roost|p1a: Corviknight"))
	if b.Tendencies.Actions != 2 {
		t.Errorf("actions = %d, want 2", b.Tendencies.Actions)
	}
	if b.Tendencies.Protects != 1 {
		t.Errorf("protects = %d", b.Tendencies.Protects)
	}
	if b.Tendencies.Switches != 1 {
		t.Errorf("switches = %d", b.Tendencies.Switches)
	}
}

func TestFormatDecision(t *testing.T) {
	b := newSession(t)
	b.RQID = 7
	b.User.Active = &Pokemon{Species: "garchomp", Index: 1}
	b.User.Reserve = []*Pokemon{{Species: "rotomwash", Index: 2}}

	parts, err := b.FormatDecision("earthquake")
	if err != nil {
		t.Fatal(err)
	}
	if parts[0] != "/choose move earthquake" || parts[1] != "7" {
		t.Errorf("parts = %v", parts)
	}

	parts, err = b.FormatDecision("dragonascent-tera")
	if err != nil {
		t.Fatal(err)
	}
	if parts[0] != "/choose move dragonascent terastallize" {
		t.Errorf("tera parts = %v", parts)
	}

	parts, err = b.FormatDecision("switch rotomwash")
	if err != nil {
		t.Fatal(err)
	}
	if parts[0] != "/switch 2" {
		t.Errorf("switch parts = %v", parts)
	}

	if _, err := b.FormatDecision("switch pikachu"); err == nil {
		t.Error("switch to unknown species accepted")
	}
}

func TestFormatTeamPreview(t *testing.T) {
	b := newSession(t)
	b.RQID = 3
	b.User.Active = &Pokemon{Species: "a", Index: 1}
	for i := 2; i <= 6; i++ {
		b.User.Reserve = append(b.User.Reserve, &Pokemon{Index: i})
	}
	got := b.FormatTeamPreview(3)
	if got != "/team 312456|3" {
		t.Errorf("team order = %q", got)
	}
}

func TestSnapshotAndClone(t *testing.T) {
	b := newSession(t)
	b.Apply(msg("|switch|p2a: Garchomp|Garchomp, L84, M|100/100"))
	b.Turn = 5

	c := b.Clone()
	c.Opponent.Active.HP = 1
	c.Opponent.Active.Moves = append(c.Opponent.Active.Moves, Move{ID: "earthquake"})
	if b.Opponent.Active.HP == 1 || len(b.Opponent.Active.Moves) != 0 {
		t.Error("clone shares state with the original")
	}

	snap := b.Snapshot()
	for _, want := range []string{"turn=5", "garchomp", "opponent="} {
		if !strings.Contains(snap, want) {
			t.Errorf("snapshot missing %q: %s", want, snap)
		}
	}
}
