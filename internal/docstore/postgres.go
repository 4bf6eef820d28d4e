package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// ChangesChannel is the NOTIFY channel the documents trigger publishes on.
const ChangesChannel = "docstore_changes"

// PostgresStore keeps documents as jsonb rows in the documents table. Subscriptions
// are driven by LISTEN/NOTIFY, see Listen.
type PostgresStore struct {
	DB  *sql.DB
	Log logrus.FieldLogger

	hub *hub
}

func NewPostgresStore(db *sql.DB, log logrus.FieldLogger) *PostgresStore {
	s := &PostgresStore{DB: db, Log: log}
	s.hub = newHub(s)
	return s
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (Document, error) {
	doc := Document{ID: id}
	var data []byte
	err := s.DB.QueryRowContext(ctx, `
		SELECT data, update_time FROM documents
		WHERE collection = $1 AND id = $2
	`, collection, id).Scan(&data, &doc.UpdateTime)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, err
	}
	doc.Data = data
	return doc, nil
}

func (s *PostgresStore) List(ctx context.Context, q Query) ([]Document, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, data, update_time FROM documents
		WHERE collection = $1
	`, q.Collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var doc Document
		var data []byte
		if err := rows.Scan(&doc.ID, &data, &doc.UpdateTime); err != nil {
			return nil, err
		}
		doc.Data = data
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sortDocuments(docs, q.OrderBy)
	return docs, nil
}

func (s *PostgresStore) Create(ctx context.Context, collection string, data any) (string, error) {
	id := uuid.NewString()
	if err := s.Insert(ctx, collection, id, data); err != nil {
		return "", err
	}
	return id, nil
}

func (s *PostgresStore) Insert(ctx context.Context, collection, id string, data any) error {
	raw, err := marshalObject(data)
	if err != nil {
		return err
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3)
	`, collection, id, string(raw))
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrAlreadyExists
	}
	return err
}

func (s *PostgresStore) Set(ctx context.Context, collection, id string, data any) error {
	raw, err := marshalObject(data)
	if err != nil {
		return err
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, id)
		DO UPDATE SET data = EXCLUDED.data, update_time = now()
	`, collection, id, string(raw))
	return err
}

func (s *PostgresStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	patch, err := marshalFields(fields)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(patch)
	if err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `
		UPDATE documents
		SET data = data || $3::jsonb, update_time = now()
		WHERE collection = $1 AND id = $2
	`, collection, id, string(raw))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.DB.ExecContext(ctx, `
		DELETE FROM documents WHERE collection = $1 AND id = $2
	`, collection, id)
	return err
}

func (s *PostgresStore) WatchDocument(ctx context.Context, collection, id string) (*Subscription[DocumentSnapshot], error) {
	return s.hub.watchDocument(ctx, collection, id), nil
}

func (s *PostgresStore) WatchQuery(ctx context.Context, q Query) (*Subscription[QuerySnapshot], error) {
	return s.hub.watchQuery(ctx, q), nil
}

type changeNotice struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
}

func parseChangeNotice(payload string) (changeNotice, error) {
	var n changeNotice
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return changeNotice{}, err
	}
	if n.Collection == "" || n.ID == "" {
		return changeNotice{}, errors.New("change notice without collection or id")
	}
	return n, nil
}

// Listen follows the change feed until ctx is done. A reconnect resyncs every
// watcher since notifications sent while disconnected are lost.
func (s *PostgresStore) Listen(ctx context.Context, connStr string) error {
	listener := pq.NewListener(connStr, time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			s.Log.WithError(err).WithField("event", ev).Warn("docstore listener event")
		}
	})
	defer listener.Close()

	if err := listener.Listen(ChangesChannel); err != nil {
		return err
	}
	s.Log.WithField("channel", ChangesChannel).Info("docstore change feed started")

	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-listener.Notify:
			s.handleNotification(ctx, n)
		case <-ping.C:
			go func() {
				if err := listener.Ping(); err != nil {
					s.Log.WithError(err).Warn("docstore listener ping failed")
				}
			}()
		}
	}
}

func (s *PostgresStore) handleNotification(ctx context.Context, n *pq.Notification) {
	if n == nil {
		s.Log.Info("docstore change feed reconnected, resyncing watchers")
		s.hub.resync(ctx)
		return
	}
	notice, err := parseChangeNotice(n.Extra)
	if err != nil {
		s.Log.WithError(err).WithField("payload", n.Extra).Warn("ignoring malformed change notice")
		return
	}
	s.hub.notify(ctx, notice.Collection, notice.ID)
}

var _ Store = (*PostgresStore)(nil)
