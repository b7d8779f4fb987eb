package room

import (
	"encoding/json"

	"github.com/wfunc/intersplice/game"
	"github.com/wfunc/intersplice/network"
)

// Command is one inbound message addressed to a room.
type Command struct {
	Kind   string
	ConnID string
	Data   json.RawMessage
}

type joinPayload struct {
	Name     network.String `json:"name"`
	Color    network.String `json:"color"`
	Token    network.String `json:"token"`
	ClientID network.String `json:"clientId"`
	PIN      network.String `json:"pin"`
}

func (p joinPayload) request() game.JoinRequest {
	token := string(p.Token)
	if token == "" {
		token = string(p.ClientID)
	}
	return game.JoinRequest{
		Name:  string(p.Name),
		Color: string(p.Color),
		Token: token,
		PIN:   string(p.PIN),
	}
}

type numberPayload struct {
	Number network.Int `json:"number"`
}

type coordPayload struct {
	X network.Int `json:"x"`
	Y network.Int `json:"y"`
}

type sponsorPayload struct {
	TargetID network.String `json:"targetId"`
}

type sizePayload struct {
	Size network.Int `json:"size"`
}

// paintPayload accepts both the mode/value and action/buffType spellings.
type paintPayload struct {
	X        network.Int    `json:"x"`
	Y        network.Int    `json:"y"`
	Mode     network.String `json:"mode"`
	Action   network.String `json:"action"`
	Value    network.String `json:"value"`
	Buff     network.String `json:"buff"`
	BuffType network.String `json:"buffType"`
}

func (p paintPayload) mode() string {
	return firstOf(p.Mode, p.Action)
}

func (p paintPayload) item() string {
	return firstOf(p.Value, p.BuffType, p.Buff)
}

type colorPayload struct {
	PlayerID network.String `json:"playerId"`
	Color    network.String `json:"color"`
}

type kickPayload struct {
	PlayerID network.String `json:"playerId"`
	ID       network.String `json:"id"`
}

type settingsPayload struct {
	HazardsPerRefresh network.Int  `json:"firesPerRefresh"`
	LootPerRefresh    network.Int  `json:"buffsPerRefresh"`
	ShowPhaseTimer    network.Bool `json:"showPhaseTimer"`
	NumberSeconds     network.Int  `json:"numberSec"`
	MovementSeconds   network.Int  `json:"movementSec"`
	ResolutionSeconds network.Int  `json:"resolutionSec"`
	RefreshSeconds    network.Int  `json:"refreshSec"`
	RefreshEvery      network.Int  `json:"refreshEvery"`
	EliminationVP     network.Int  `json:"eliminationVP"`
	RenownVP          network.Int  `json:"renownChipVP"`
	SurvivalEnabled   network.Bool `json:"survivalPerRoundEnabled"`
	SurvivalVP        network.Int  `json:"survivalPerRoundVP"`
	SanctumEnabled    network.Bool `json:"innerSanctumEnabled"`
	SanctumVP         network.Int  `json:"innerSanctumVP"`
	CenterVP          network.Int  `json:"centerTileVP"`
	LastStandingEnds  network.Bool `json:"lastStandingEnds"`
}

func (p settingsPayload) patch() game.SettingsPatch {
	return game.SettingsPatch{
		HazardsPerRefresh: p.HazardsPerRefresh.Ptr(),
		LootPerRefresh:    p.LootPerRefresh.Ptr(),
		ShowPhaseTimer:    p.ShowPhaseTimer.Ptr(),
		NumberSeconds:     p.NumberSeconds.Ptr(),
		MovementSeconds:   p.MovementSeconds.Ptr(),
		ResolutionSeconds: p.ResolutionSeconds.Ptr(),
		RefreshSeconds:    p.RefreshSeconds.Ptr(),
		RefreshEvery:      p.RefreshEvery.Ptr(),
		EliminationVP:     p.EliminationVP.Ptr(),
		RenownVP:          p.RenownVP.Ptr(),
		SurvivalEnabled:   p.SurvivalEnabled.Ptr(),
		SurvivalVP:        p.SurvivalVP.Ptr(),
		SanctumEnabled:    p.SanctumEnabled.Ptr(),
		SanctumVP:         p.SanctumVP.Ptr(),
		CenterVP:          p.CenterVP.Ptr(),
		LastStandingEnds:  p.LastStandingEnds.Ptr(),
	}
}

func firstOf(vals ...network.String) string {
	for _, v := range vals {
		if v != "" {
			return string(v)
		}
	}
	return ""
}

// decode reads cmd's payload into T. A payload of the wrong shape is logged
// and treated as empty, so the command degrades to its defaults.
func decode[T any](r *Room, cmd Command) T {
	out, err := network.DecodePayload[T](network.Envelope{Type: cmd.Kind, Data: cmd.Data})
	if err != nil {
		r.log.Debugw("malformed payload", "kind", cmd.Kind, "conn", cmd.ConnID, "error", err)
		var zero T
		return zero
	}
	return out
}

// dispatch applies one command to the game. Unknown kinds are ignored.
func (r *Room) dispatch(cmd Command) {
	g, conn := r.game, cmd.ConnID

	switch cmd.Kind {
	case network.CmdHostAttach:
		g.AttachHost(conn)
	case network.CmdUpdateSettings:
		g.UpdateSettings(conn, decode[settingsPayload](r, cmd).patch())
	case network.CmdSetBoardSize:
		if p := decode[sizePayload](r, cmd); p.Size.Set {
			g.SetBoardSize(conn, p.Size.Value)
		}
	case network.CmdStartGame:
		g.StartGame(conn, decode[sizePayload](r, cmd).Size.Value)
	case network.CmdForceEndPhase:
		g.ForceEndPhase(conn)
	case network.CmdForceEndRound:
		g.ForceEndRound(conn)
	case network.CmdEndGame:
		g.EndGame(conn)
	case network.CmdPaint:
		p := decode[paintPayload](r, cmd)
		g.Paint(conn, p.X.Value, p.Y.Value, p.mode(), p.item())
	case network.CmdTogglePause:
		g.TogglePause(conn)
	case network.CmdSetColor:
		p := decode[colorPayload](r, cmd)
		g.SetColor(conn, string(p.PlayerID), string(p.Color))
	case network.CmdKick:
		p := decode[kickPayload](r, cmd)
		if kicked, ok := g.Kick(conn, firstOf(p.PlayerID, p.ID)); ok && kicked != "" {
			r.broadcaster.Detach(r.ID, kicked)
		}
	case network.CmdClearDisconnected:
		g.ClearDisconnected(conn)
	case network.CmdReset:
		g.Reset(conn)

	case network.CmdJoin:
		g.Join(conn, decode[joinPayload](r, cmd).request())
	case network.CmdReconnect:
		g.Reconnect(conn, decode[joinPayload](r, cmd).request())
	case network.CmdPickNumber:
		if p := decode[numberPayload](r, cmd); p.Number.Set {
			g.PickNumber(conn, p.Number.Value)
		}
	case network.CmdMoveTo:
		p := decode[coordPayload](r, cmd)
		if p.X.Set && p.Y.Set {
			g.MoveTo(conn, p.X.Value, p.Y.Value)
		}
	case network.CmdSponsorPick:
		g.SponsorPick(conn, string(decode[sponsorPayload](r, cmd).TargetID))
	case network.CmdRequestLegalMoves:
		g.RequestLegalMoves(conn)
	case network.CmdStateRequest:
		g.StateRequest(conn)
	case network.CmdDisconnect:
		g.Disconnect(conn)

	default:
		r.log.Debugw("unknown command", "kind", cmd.Kind, "conn", conn)
		return
	}
	r.metrics.CommandHandled(cmd.Kind)
}
