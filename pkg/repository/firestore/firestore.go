package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/agentdesk/pkg/domain/interfaces"
)

// ErrNotFound is returned (wrapped) when a document does not exist
var ErrNotFound = interfaces.ErrNotFound

type Firestore struct {
	client           *firestore.Client
	collectionPrefix string
	user             *userRepository
	item             *itemRepository
	agent            *agentRepository
	meeting          *meetingRepository
	transcript       *transcriptRepository
	summary          *summaryRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix prefixes every collection name, e.g. "test" makes
// "test_agents". Used to isolate test runs sharing one database.
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.collectionPrefix = prefix
	}
}

// New connects to the Firestore database. An empty databaseID selects the
// default database.
func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	f := &Firestore{}
	for _, opt := range opts {
		opt(f)
	}

	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID))
	}

	f.client = client
	c := collections{prefix: f.collectionPrefix}
	f.user = &userRepository{client: client, col: c}
	f.item = &itemRepository{client: client, col: c}
	f.agent = &agentRepository{client: client, col: c}
	f.meeting = &meetingRepository{client: client, col: c}
	f.transcript = &transcriptRepository{client: client, col: c}
	f.summary = &summaryRepository{client: client, col: c}

	return f, nil
}

func (f *Firestore) User() interfaces.UserRepository {
	return f.user
}

func (f *Firestore) Item() interfaces.ItemRepository {
	return f.item
}

func (f *Firestore) Agent() interfaces.AgentRepository {
	return f.agent
}

func (f *Firestore) Meeting() interfaces.MeetingRepository {
	return f.meeting
}

func (f *Firestore) Transcript() interfaces.TranscriptRepository {
	return f.transcript
}

func (f *Firestore) Summary() interfaces.SummaryRepository {
	return f.summary
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

// Collection names without prefix. Also used by the index migration.
const (
	CollectionUsers       = "users"
	CollectionItems       = "items"
	CollectionAgents      = "agents"
	CollectionMeetings    = "meetings"
	CollectionTranscripts = "transcripts"
	CollectionSummaries   = "summaries"
	CollectionTokens      = "tokens"
)

type collections struct {
	prefix string
}

func (c collections) name(base string) string {
	if c.prefix != "" {
		return c.prefix + "_" + base
	}
	return base
}
