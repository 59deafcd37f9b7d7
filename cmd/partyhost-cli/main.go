// Command partyhost-cli plays a mini-game locally with bot players and prints
// the scoreboard.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/enescakir/emoji"
	"github.com/kelseyhightower/envconfig"
	"github.com/partyhost/partyhost/internal/game"
	"github.com/partyhost/partyhost/internal/geom"
	"github.com/partyhost/partyhost/internal/logging"
	"github.com/partyhost/partyhost/internal/party"
	"github.com/partyhost/partyhost/internal/shutdown"
	"github.com/valyala/fastrand"
)

func main() {
	mode := flag.String("mode", string(game.ModeClassic), "CLASSIC, ROUNDS, KING_OF_LAKE or SWAN_SWARM")
	players := flag.Int("players", 4, "number of bots")
	duration := flag.Int("duration", 20, "round length in seconds, 0 keeps the mode default")
	flag.Parse()

	ctx, done := shutdown.New()
	defer done()

	config := party.GameConfig{}
	if err := envconfig.Process("", &config); err != nil {
		logging.DefaultLogger().Fatalf("processing the config: %v", err)
	}

	logger := logging.NewLogger(false)
	ctx = logging.WithLogger(ctx, logger)

	if err := realMain(ctx, config, *mode, *players, *duration); err != nil {
		logger.Fatalf("main.realMain: %v", err)
	}
}

func realMain(ctx context.Context, config party.GameConfig, modeName string, players, duration int) error {
	mode, err := game.ParseMode(modeName)
	if err != nil {
		return err
	}

	participants := make([]game.Participant, players)
	for i := range participants {
		participants[i] = game.Participant{ID: "bot" + strconv.Itoa(i+1), Name: "Bot " + strconv.Itoa(i+1)}
	}

	engine, err := game.NewEngine(game.EngineConfig{
		SessionCode:  "LOCAL",
		Mode:         mode,
		Participants: participants,
		Duration:     time.Duration(duration) * time.Second,
		Round:        1,
		Tuning:       config.Tuning(),
	})
	if err != nil {
		return fmt.Errorf("new engine: %w", err)
	}

	console := &console{out: os.Stdout}
	session := game.NewSession(engine, game.SessionConfig{Broadcaster: console})
	session.Run(ctx)

	_, _ = fmt.Fprintf(os.Stdout, "%v %s with %d bots\n", emoji.Swan, mode, players)
	drive(ctx, session, participants)

	return nil
}

// drive steers every bot in a random direction until the game is over.
func drive(ctx context.Context, session *game.Session, participants []game.Participant) {
	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-session.Done():
			return
		case <-ctx.Done():
			session.Stop()
			<-session.Done()
			return
		case <-ticker.C:
			for _, p := range participants {
				angle := float64(fastrand.Uint32n(360)) * math.Pi / 180
				in := game.Input{
					Direction: geom.Pt(math.Cos(angle), math.Sin(angle)),
					Sprint:    fastrand.Uint32n(4) == 0,
					Dash:      fastrand.Uint32n(10) == 0,
				}
				_ = session.HandleInput(p.ID, in)
			}
		}
	}
}

type console struct {
	mtx      sync.Mutex
	out      io.Writer
	lastLine time.Time
}

func (c *console) Broadcast(_ string, event string, payload interface{}) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	switch event {
	case game.EventSnapshot:
		state := payload.(game.GameState)
		if time.Since(c.lastLine) < time.Second {
			return
		}
		c.lastLine = time.Now()
		_, _ = fmt.Fprintf(c.out, "%v %-9s %3ds left\n", emoji.Sailboat, state.Status, state.TimeRemaining/1000)
	case game.EventEnded:
		ev := payload.(game.EndedEvent)
		_, _ = fmt.Fprintf(c.out, "\n%s\n\n", ev.Banner)
		for i, p := range game.Ranked(ev.Players) {
			_, _ = fmt.Fprintf(c.out, "%d. %-8s %-5s %-10s %4d\n", i+1, p.Name, p.Team, p.Status, p.Score)
		}
	case game.EventStopped:
		_, _ = fmt.Fprintf(c.out, "%v stopped\n", emoji.Warning)
	case game.EventAborted:
		ev := payload.(game.AbortedEvent)
		_, _ = fmt.Fprintf(c.out, "%v aborted: %s\n", emoji.Warning, ev.Reason)
	}
}
