// Command client runs websocket bots that join a room and play random
// legal turns. It is meant for load and soak testing.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand/v2"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wfunc/intersplice/game"
	"github.com/wfunc/intersplice/logger"
	"github.com/wfunc/intersplice/network"
	"github.com/wfunc/intersplice/state"
)

type bot struct {
	name  string
	conn  *websocket.Conn
	mutex sync.Mutex

	pickedRound int
	movedRound  int
}

func dial(addr, room string) (*websocket.Conn, error) {
	u := url.URL{Scheme: "ws", Host: addr, Path: "/ws", RawQuery: url.Values{"room": {room}}.Encode()}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	return c, err
}

func (b *bot) send(msgType string, payload any) error {
	data, err := network.Encode(msgType, payload)
	if err != nil {
		return err
	}
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.conn.WriteMessage(websocket.TextMessage, data)
}

// play reads events until the connection drops or the game ends.
func (b *bot) play(exitOnGameOver bool) {
	for {
		_, message, err := b.conn.ReadMessage()
		if err != nil {
			logger.Log.Infow("read loop ended", "bot", b.name, "error", err)
			return
		}
		env, err := network.DecodeEnvelope(message)
		if err != nil {
			continue
		}
		switch env.Type {
		case network.EvtState:
			var snap game.Snapshot
			if json.Unmarshal(env.Data, &snap) == nil {
				b.onState(snap)
			}
		case network.EvtLegalMoves:
			var moves struct {
				Tiles []struct{ X, Y int } `json:"tiles"`
			}
			if json.Unmarshal(env.Data, &moves) == nil && len(moves.Tiles) > 0 {
				t := moves.Tiles[rand.IntN(len(moves.Tiles))]
				b.send(network.CmdMoveTo, map[string]int{"x": t.X, "y": t.Y})
			}
		case network.EvtGameOver:
			logger.Log.Infow("game over", "bot", b.name, "result", string(env.Data))
			if exitOnGameOver {
				return
			}
		case network.EvtError:
			logger.Log.Warnw("server error", "bot", b.name, "data", string(env.Data))
		}
	}
}

func (b *bot) onState(snap game.Snapshot) {
	you := snap.You
	if you == nil {
		return
	}
	switch snap.Phase {
	case state.Number:
		if you.CurrentNumber == nil && b.pickedRound != snap.Round && len(snap.AvailableNumbers) > 0 {
			b.pickedRound = snap.Round
			n := snap.AvailableNumbers[rand.IntN(len(snap.AvailableNumbers))]
			b.send(network.CmdPickNumber, map[string]int{"number": n})
		}
		if you.Ascended && you.Sponsor != nil && you.Sponsor.SelectedID == "" && len(you.Sponsor.EligibleTargets) > 0 {
			target := you.Sponsor.EligibleTargets[rand.IntN(len(you.Sponsor.EligibleTargets))]
			b.send(network.CmdSponsorPick, map[string]string{"targetId": target.ID})
		}
	case state.Movement:
		if you.Alive && b.movedRound != snap.Round {
			b.movedRound = snap.Round
			b.send(network.CmdRequestLegalMoves, nil)
		}
	}
}

func main() {
	addr := flag.String("addr", "localhost:3000", "server host:port")
	room := flag.String("room", "bots", "room id")
	count := flag.Int("bots", 4, "number of player bots")
	host := flag.Bool("host", true, "also attach a host that starts the game")
	size := flag.Int("size", 10, "board size requested by the host")
	startAfter := flag.Duration("start-after", 2*time.Second, "delay before the host starts the game")
	exit := flag.Bool("exit", true, "exit when the game is over")
	debug := flag.Bool("debug", false, "development logging")
	flag.Parse()

	logger.Init(*debug)
	defer logger.Sync()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	var wg sync.WaitGroup
	var bots []*bot
	for i := 1; i <= *count; i++ {
		c, err := dial(*addr, *room)
		if err != nil {
			logger.Log.Fatalf("Dial failed: %v", err)
		}
		b := &bot{name: fmt.Sprintf("Bot %d", i), conn: c}
		bots = append(bots, b)
		if err := b.send(network.CmdJoin, map[string]string{"name": b.name}); err != nil {
			logger.Log.Fatalf("Join failed: %v", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.play(*exit)
		}()
	}

	if *host {
		c, err := dial(*addr, *room)
		if err != nil {
			logger.Log.Fatalf("Dial failed: %v", err)
		}
		h := &bot{name: "host", conn: c}
		bots = append(bots, h)
		h.send(network.CmdHostAttach, nil)
		time.AfterFunc(*startAfter, func() {
			logger.Log.Infow("starting game", "room", *room, "size", *size)
			h.send(network.CmdStartGame, map[string]int{"size": *size})
		})
		// the host only needs its read side drained
		go h.play(false)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-interrupt:
		logger.Log.Info("Interrupt received, closing connections.")
	}
	for _, b := range bots {
		b.mutex.Lock()
		b.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		b.mutex.Unlock()
		b.conn.Close()
	}
}
