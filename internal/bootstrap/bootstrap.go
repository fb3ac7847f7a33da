package bootstrap

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	vertexclient "github.com/ridgelinevc/portfolio-backend/internal/client/vertex"
	"github.com/ridgelinevc/portfolio-backend/internal/config"
	"github.com/ridgelinevc/portfolio-backend/pkg/logger"
)

type Bootstrap struct {
	Log    *slog.Logger
	DB     *pgxpool.Pool
	Vertex *vertexclient.Adapter
}

func Run(cfg *config.Config) (*Bootstrap, error) {
	var err error
	applicationCtx := context.Background()
	bs := new(Bootstrap)

	bs.Log = logger.New(cfg.Log.Level)
	bs.DB, err = InitPostgres(applicationCtx, cfg.Database)
	if err != nil {
		return bs, err
	}
	bs.Vertex, err = vertexclient.NewAdapter(applicationCtx, bs.Log,
		cfg.Vertex.ProjectID, cfg.Vertex.Region, cfg.Vertex.Model, cfg.Vertex.RequestsPerMinute)
	if err != nil {
		return bs, err
	}

	return bs, nil
}

func (b *Bootstrap) Close() {
	if b.Vertex != nil {
		b.Vertex.Close()
	}
	if b.DB != nil {
		b.DB.Close()
	}
}
