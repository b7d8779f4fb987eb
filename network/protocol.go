package network

// Inbound commands. Host commands are only honoured from the room's host connection.
const (
	CmdHostAttach        = "host-join"
	CmdUpdateSettings    = "host:update-settings"
	CmdSetBoardSize      = "host:board:size"
	CmdStartGame         = "host-start"
	CmdForceEndPhase     = "host-end-phase"
	CmdForceEndRound     = "host-end-round"
	CmdEndGame           = "host-end-game"
	CmdPaint             = "host:paint"
	CmdTogglePause       = "host-toggle-pause"
	CmdSetColor          = "host-set-color"
	CmdKick              = "host:kick"
	CmdClearDisconnected = "host-clear-ghosts"
	CmdReset             = "host:reset"

	CmdJoin              = "player:join"
	CmdReconnect         = "player:reconnect"
	CmdPickNumber        = "pick-number"
	CmdMoveTo            = "move-to"
	CmdSponsorPick       = "sponsor-pick"
	CmdRequestLegalMoves = "request-legal-moves"

	CmdStateRequest = "state:request"
	CmdHeartbeat    = "ping"
	// CmdDisconnect is synthesised by the server when a connection drops.
	CmdDisconnect = "disconnect"
)

// Outbound events.
const (
	EvtState            = "state"
	EvtStateFull        = "state:full"
	EvtHostAttached     = "host:attached"
	EvtHostSettings     = "host:settings"
	EvtJoinedAck        = "joined-ack"
	EvtYourPIN          = "your-pin"
	EvtResolutionStart  = "phase:resolution:start"
	EvtResolutionEnd    = "phase:resolution:end"
	EvtLastNumber       = "player:last-number"
	EvtBuffUpdate       = "player:buff:update"
	EvtLootOpen         = "loot:open"
	EvtLootPickup       = "loot:pickup"
	EvtLootBlocked      = "loot:blocked"
	EvtEncounterOpen    = "encounter:open"
	EvtEncounterResolve = "encounter:resolve"
	EvtSponsorState     = "sponsor-state"
	EvtGameOver         = "game-over"
	EvtMoveAck          = "move-ack"
	EvtLegalMoves       = "legal-moves"
	EvtPong             = "pong"
	EvtError            = "error"
)
