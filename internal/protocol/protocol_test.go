package protocol

import "testing"

const tag = "battle-gen9randombattle-12345"

func msg(room string, lines ...string) Message {
	return Message{Room: room, Lines: lines}
}

func TestParse(t *testing.T) {
	m := Parse(">" + tag + "\n|player|p1|BigBot|265|\n|turn|4")
	if m.Room != tag {
		t.Fatalf("room = %q, want %q", m.Room, tag)
	}
	if len(m.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(m.Lines))
	}

	m = Parse("|updateuser| BigBot|1|265|{}")
	if m.Room != "" {
		t.Errorf("global message got room %q", m.Room)
	}
}

func TestIsBattleRoom(t *testing.T) {
	if !IsBattleRoom(tag) {
		t.Error("battle tag not recognized")
	}
	if IsBattleRoom("lobby") {
		t.Error("lobby misclassified as battle room")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		m    Message
		want EventType
	}{
		{"identity", msg(tag, "|player|p1|BigBot|265|"), EventIdentity},
		{"request", msg(tag, `|request|{"rqid":3}`), EventRequest},
		{"start", msg(tag, "|start"), EventBattleStart},
		{"preview", msg(tag, "|clearpoke"), EventTeamPreview},
		{"end", msg(tag, "|win|BigBot"), EventBattleEnd},
		{"chat", msg(tag, "|c|+someone|hi"), EventChat},
		{"other", msg(tag, "|upkeep"), EventOther},
	}
	for _, tt := range tests {
		if got := Classify(tag, tt.m); got != tt.want {
			t.Errorf("%s: Classify = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestIndicatesBattleEnd(t *testing.T) {
	if !IndicatesBattleEnd(tag, msg(tag, "|win|BigBot")) {
		t.Error("win line not detected")
	}
	if !IndicatesBattleEnd(tag, msg(tag, "|tie")) {
		t.Error("tie line not detected")
	}
	if !IndicatesBattleEnd(tag, msg(tag, "|deinit")) {
		t.Error("room teardown not detected")
	}
	// A chat message quoting "win" must not end the battle.
	if IndicatesBattleEnd(tag, msg(tag, "|c|+someone|nice |win| huh")) {
		t.Error("chat echo misread as battle end")
	}
	if IndicatesBattleEnd("battle-other-1", msg(tag, "|win|BigBot")) {
		t.Error("win in a different room ended this battle")
	}
}

func TestExtractWinner(t *testing.T) {
	if got := ExtractWinner(msg(tag, "|faint|p2a: Garchomp", "|win|BigBot")); got != "BigBot" {
		t.Errorf("winner = %q, want BigBot", got)
	}
	if got := ExtractWinner(msg(tag, "|tie")); got != "" {
		t.Errorf("tie winner = %q, want empty", got)
	}
}

func TestExtractWinReason(t *testing.T) {
	tests := []struct {
		name string
		m    Message
		want string
	}{
		{"forfeit", msg(tag, "|-message|Opp forfeited.", "|win|BigBot"), "forfeit"},
		{"timeout", msg(tag, "|-message|Opp lost due to inactivity timeout.", "|win|BigBot"), "timeout"},
		{"disconnect", msg(tag, "|-message|Opp disconnected and has 300 seconds to reconnect!"), "disconnect"},
		// Forfeit outranks an earlier timeout mention.
		{"priority", msg(tag, "|-message|timeout warning", "|-message|Opp forfeited."), "forfeit"},
		{"chat ignored", msg(tag, "|c|+someone|lol forfeit"), ""},
		{"none", msg(tag, "|win|BigBot"), ""},
	}
	for _, tt := range tests {
		if got := ExtractWinReason(tt.m); got != tt.want {
			t.Errorf("%s: reason = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestExtractRequest(t *testing.T) {
	payload := `{"rqid":7,"wait":true}`
	if got := ExtractRequest(msg(tag, "|request|"+payload)); got != payload {
		t.Errorf("payload = %q", got)
	}
	if got := ExtractRequest(msg(tag, "|request|")); got != "" {
		t.Errorf("empty request produced %q", got)
	}
}

func TestCollectPlayers(t *testing.T) {
	players := map[string]string{}
	CollectPlayers(msg(tag, "|player|p1|BigBot|265|", "|player|p2|Opp|1|"), players)
	if players["p1"] != "BigBot" || players["p2"] != "Opp" {
		t.Fatalf("players = %v", players)
	}
}

func TestActorActions(t *testing.T) {
	m := msg(tag,
		"|move|p2a: Garchomp|Earthquake|p1a: Corviknight",
		"|switch|p2a: Rotom|Rotom-Wash, L82|100/100",
		"|move|p1a: Corviknight|Roost|p1a: Corviknight",
	)
	actions := ActorActions(m, "p2")
	if len(actions) != 2 {
		t.Fatalf("actions = %d, want 2", len(actions))
	}
	if actions[0].Kind != "move" || actions[0].Move != "earthquake" {
		t.Errorf("first action = %+v", actions[0])
	}
	if actions[1].Kind != "switch" {
		t.Errorf("second action = %+v", actions[1])
	}
	if got := ActorActions(m, ""); got != nil {
		t.Errorf("unresolved side produced actions: %v", got)
	}
}
