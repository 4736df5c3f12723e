package client

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
)

// ChallengeUser sends a challenge for the given format.
func (c *Client) ChallengeUser(user, format string) error {
	log.Info().Str("user", user).Str("format", format).Msg("Challenging")
	return c.SendMessage("", []string{"/challenge " + user + "," + format})
}

// AcceptChallenge waits for an incoming challenge in the given format and
// accepts it. When room is non-empty the client idles in that room while
// waiting.
func (c *Client) AcceptChallenge(ctx context.Context, format, room string) error {
	if room != "" {
		if err := c.JoinRoom(room); err != nil {
			return err
		}
	}
	log.Info().Str("format", format).Msg("Waiting for a challenge")

	for {
		msg, err := c.ReceiveMessage(ctx)
		if err != nil {
			return err
		}
		for _, line := range strings.Split(msg, "\n") {
			parts := strings.Split(line, "|")
			if len(parts) < 6 || parts[1] != "pm" {
				continue
			}
			target := strings.TrimSpace(strings.Trim(parts[3], "!"))
			if !strings.EqualFold(target, c.opts.Username) {
				continue
			}
			if strings.HasPrefix(parts[4], "/challenge") && parts[5] == format {
				challenger := strings.TrimSpace(parts[2])
				log.Info().Str("challenger", challenger).Msg("Accepting challenge")
				return c.SendMessage("", []string{"/accept " + challenger})
			}
		}
	}
}

// SearchLadder queues for a ranked match in the given format.
func (c *Client) SearchLadder(format string) error {
	log.Info().Str("format", format).Msg("Searching for ladder match")
	return c.SendMessage("", []string{"/search " + format})
}

// UploadTeam registers a packed team for the next battle.
func (c *Client) UploadTeam(packedTeam string) error {
	return c.SendMessage("", []string{"/utm " + packedTeam})
}

// SaveReplay asks the server to store the battle replay.
func (c *Client) SaveReplay(battleTag string) error {
	return c.SendMessage(battleTag, []string{"/savereplay"})
}

// StartTimer enables or disables the battle timer in a room.
func (c *Client) StartTimer(battleTag, mode string) error {
	return c.SendMessage(battleTag, []string{"/timer " + mode})
}

// LeaveBattle leaves a battle room, waiting for the server's teardown
// confirmation.
func (c *Client) LeaveBattle(ctx context.Context, battleTag string) error {
	if err := c.LeaveRoom(battleTag); err != nil {
		return err
	}
	for {
		msg, err := c.ReceiveMessage(ctx)
		if err != nil {
			return err
		}
		if strings.Contains(msg, battleTag) && strings.Contains(msg, "deinit") {
			return nil
		}
	}
}
