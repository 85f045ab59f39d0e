package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/vidtube/internal/dbx"
	"github.com/dmitrijs2005/vidtube/internal/server/repositories/subscriptions"
	"github.com/dmitrijs2005/vidtube/internal/server/repositories/users"
	"github.com/dmitrijs2005/vidtube/internal/server/repositories/videos"
)

// RepositoryManager hands out repositories bound to a DBTX, so the same
// constructors serve plain connections and transactions.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Videos(db dbx.DBTX) videos.Repository
	Subscriptions(db dbx.DBTX) subscriptions.Repository
}
