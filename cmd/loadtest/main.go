package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/feather-classroom/feather/broadcast"
	"github.com/feather-classroom/feather/client"
	"github.com/feather-classroom/feather/feather/types"
)

type options struct {
	url      string
	students int
	strokes  int
	interval time.Duration
	drain    time.Duration
}

func main() {
	opts := options{}
	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Simulate a classroom drawing on a feather server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			r.Print(cmd.OutOrStdout())
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.url, "url", "http://localhost:3000", "Base url of the feather server")
	cmd.Flags().IntVarP(&opts.students, "students", "n", 30, "Number of simulated students")
	cmd.Flags().IntVar(&opts.strokes, "strokes", 20, "Strokes drawn by each student")
	cmd.Flags().DurationVar(&opts.interval, "interval", 200*time.Millisecond, "Pause between two strokes of a student")
	cmd.Flags().DurationVar(&opts.drain, "drain", 5*time.Second, "How long to wait for the last strokes to reach the teacher")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) (report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	teacherId := uuid.NewString()
	teacherAPI := client.NewAPI(opts.url, teacherId)
	created, err := teacherAPI.NewSession(ctx, "Load test", time.Hour)
	if err != nil {
		return report{}, err
	}
	sessionId := created.Session.Id
	log.Infof("Session %s (code %s) created", sessionId, created.Session.Code)

	q, err := teacherAPI.PushQuestion(ctx, sessionId, types.QuestionConfig{Kind: types.QuestionTemplate, Template: "grid"})
	if err != nil {
		return report{}, err
	}

	l := newLatencies()
	teacher := client.New(client.Options{
		URL:          opts.url,
		SessionId:    sessionId,
		ClientId:     teacherId,
		TeacherToken: created.TeacherToken,
		OnMessage: func(m *broadcast.Message) {
			if m.Type != broadcast.StudentLines {
				return
			}
			w := &types.StudentWork{}
			if err := m.Decode(w); err != nil {
				return
			}
			now := time.Now()
			for _, s := range w.Strokes {
				l.Received(s.Id, now)
			}
		},
	})
	go teacher.Run(ctx)
	if err := waitSynced(ctx, teacher); err != nil {
		return report{}, err
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < opts.students; i++ {
		name := fmt.Sprintf("student-%03d", i)
		g.Go(func() error {
			return student(gctx, opts, sessionId, q.Id, name, l)
		})
	}
	if err := g.Wait(); err != nil {
		return report{}, err
	}

	deadline := time.After(opts.drain)
	for l.Pending() > 0 {
		select {
		case <-deadline:
			return l.Report(), nil
		case <-ctx.Done():
			return l.Report(), ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}

	if _, err := teacherAPI.End(ctx, sessionId); err != nil {
		log.Warnf("Could not end session %s. Got: %v", sessionId, err)
	}
	return l.Report(), nil
}

func student(ctx context.Context, opts options, sessionId, questionId, name string, l *latencies) error {
	id := uuid.NewString()
	if _, err := client.NewAPI(opts.url, id).Join(ctx, sessionId, name); err != nil {
		return err
	}

	c := client.New(client.Options{URL: opts.url, SessionId: sessionId, ClientId: id})
	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	go c.Run(runCtx)
	if err := waitSynced(ctx, c); err != nil {
		return err
	}

	for i := 0; i < opts.strokes; i++ {
		stroke := types.Stroke{
			Id:     uuid.NewString(),
			Tool:   types.ToolPen,
			Color:  "#1f77b4",
			Width:  3,
			Points: []types.Point{{X: float64(i), Y: 0}, {X: float64(i), Y: 100}},
		}
		stroke.CreatedAt = time.Now()
		l.Sent(stroke.Id, stroke.CreatedAt)
		if err := c.Draw(questionId, stroke); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(opts.interval):
		}
	}
	return nil
}

func waitSynced(ctx context.Context, c *client.Client) error {
	select {
	case <-c.Synced():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(30 * time.Second):
		return fmt.Errorf("no state received after 30s")
	}
}
