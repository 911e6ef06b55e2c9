package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/agentdesk/pkg/domain/model"
	"github.com/secmon-lab/agentdesk/pkg/domain/types"
)

type meetingRepository struct {
	client *firestore.Client
	col    collections
}

func (r *meetingRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.col.name(CollectionMeetings))
}

func (r *meetingRepository) Create(ctx context.Context, meeting *model.Meeting) (*model.Meeting, error) {
	now := time.Now().UTC()
	created := *meeting
	if created.ID == "" {
		created.ID = types.NewMeetingID()
	}
	created.Status = created.Status.Normalize()
	created.CreatedAt = now
	created.UpdatedAt = now

	if _, err := r.collection().Doc(created.ID.String()).Create(ctx, &created); err != nil {
		return nil, goerr.Wrap(err, "failed to create meeting", goerr.V("meeting_id", created.ID))
	}
	return &created, nil
}

func (r *meetingRepository) Get(ctx context.Context, id types.MeetingID) (*model.Meeting, error) {
	return getDoc[model.Meeting](ctx, r.collection().Doc(id.String()), "meeting")
}

func (r *meetingRepository) ListByUser(ctx context.Context, userID types.UserID) ([]*model.Meeting, error) {
	q := r.collection().
		Where("UserID", "==", userID.String()).
		OrderBy("CreatedAt", firestore.Desc)
	return queryDocs[model.Meeting](ctx, q, "meetings")
}

func (r *meetingRepository) ListByAgent(ctx context.Context, agentID types.AgentID) ([]*model.Meeting, error) {
	q := r.collection().
		Where("AgentID", "==", agentID.String()).
		OrderBy("CreatedAt", firestore.Desc)
	return queryDocs[model.Meeting](ctx, q, "meetings")
}

func (r *meetingRepository) Update(ctx context.Context, meeting *model.Meeting) (*model.Meeting, error) {
	docRef := r.collection().Doc(meeting.ID.String())
	existing, err := getDoc[model.Meeting](ctx, docRef, "meeting")
	if err != nil {
		return nil, err
	}

	updated := *meeting
	updated.UserID = existing.UserID
	updated.Status = updated.Status.Normalize()
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	if _, err := docRef.Set(ctx, &updated); err != nil {
		return nil, goerr.Wrap(err, "failed to update meeting", goerr.V("meeting_id", meeting.ID))
	}
	return &updated, nil
}

// Delete removes the meeting, its transcript and its summary in one transaction
func (r *meetingRepository) Delete(ctx context.Context, id types.MeetingID) error {
	meetingRef := r.collection().Doc(id.String())
	transcriptRef := r.client.Collection(r.col.name(CollectionTranscripts)).Doc(id.String())
	summaryRef := r.client.Collection(r.col.name(CollectionSummaries)).Doc(id.String())

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(meetingRef); err != nil {
			return err
		}
		for _, ref := range []*firestore.DocumentRef{meetingRef, transcriptRef, summaryRef} {
			if err := tx.Delete(ref); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isNotFound(err) {
			return goerr.Wrap(ErrNotFound, "meeting not found", goerr.V("meeting_id", id))
		}
		return goerr.Wrap(err, "failed to delete meeting", goerr.V("meeting_id", id))
	}
	return nil
}

type transcriptRepository struct {
	client *firestore.Client
	col    collections
}

// Transcripts are keyed by meeting ID so a meeting has at most one
func (r *transcriptRepository) doc(meetingID types.MeetingID) *firestore.DocumentRef {
	return r.client.Collection(r.col.name(CollectionTranscripts)).Doc(meetingID.String())
}

func (r *transcriptRepository) Put(ctx context.Context, transcript *model.Transcript) error {
	if err := transcript.MeetingID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid transcript")
	}

	saved := *transcript
	if saved.ID == "" {
		saved.ID = types.NewTranscriptID()
	}
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = time.Now().UTC()
	}
	if _, err := r.doc(saved.MeetingID).Set(ctx, &saved); err != nil {
		return goerr.Wrap(err, "failed to put transcript", goerr.V("meeting_id", saved.MeetingID))
	}
	return nil
}

func (r *transcriptRepository) GetByMeeting(ctx context.Context, meetingID types.MeetingID) (*model.Transcript, error) {
	return getDoc[model.Transcript](ctx, r.doc(meetingID), "transcript")
}

type summaryRepository struct {
	client *firestore.Client
	col    collections
}

func (r *summaryRepository) doc(meetingID types.MeetingID) *firestore.DocumentRef {
	return r.client.Collection(r.col.name(CollectionSummaries)).Doc(meetingID.String())
}

func (r *summaryRepository) Put(ctx context.Context, summary *model.Summary) error {
	if err := summary.MeetingID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid summary")
	}

	saved := *summary
	if saved.ID == "" {
		saved.ID = types.NewSummaryID()
	}
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = time.Now().UTC()
	}
	if _, err := r.doc(saved.MeetingID).Set(ctx, &saved); err != nil {
		return goerr.Wrap(err, "failed to put summary", goerr.V("meeting_id", saved.MeetingID))
	}
	return nil
}

func (r *summaryRepository) GetByMeeting(ctx context.Context, meetingID types.MeetingID) (*model.Summary, error) {
	return getDoc[model.Summary](ctx, r.doc(meetingID), "summary")
}
