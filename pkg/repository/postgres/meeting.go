package postgres

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/agentdesk/pkg/domain/model"
	"github.com/secmon-lab/agentdesk/pkg/domain/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type meetingRepository struct {
	db *gorm.DB
}

func (r *meetingRepository) Create(ctx context.Context, meeting *model.Meeting) (*model.Meeting, error) {
	now := time.Now().UTC()
	rec := newMeetingRecord(meeting)
	if rec.ID == "" {
		rec.ID = types.NewMeetingID().String()
	}
	rec.CreatedAt = now
	rec.UpdatedAt = now

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(rec).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to create meeting", goerr.V("meeting_id", rec.ID))
	}
	return rec.toModel(), nil
}

func (r *meetingRepository) Get(ctx context.Context, id types.MeetingID) (*model.Meeting, error) {
	var rec meetingRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id.String()).Take(&rec).Error; err != nil {
		return nil, wrapErr(err, "failed to get meeting", goerr.V("meeting_id", id))
	}
	return rec.toModel(), nil
}

func (r *meetingRepository) list(ctx context.Context, column, value string) ([]*model.Meeting, error) {
	var recs []meetingRecord
	err := r.db.WithContext(ctx).
		Where(clause.Eq{Column: clause.Column{Name: column}, Value: value}).
		Order("created_at DESC, id DESC").
		Find(&recs).Error
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list meetings", goerr.V(column, value))
	}

	meetings := make([]*model.Meeting, 0, len(recs))
	for i := range recs {
		meetings = append(meetings, recs[i].toModel())
	}
	return meetings, nil
}

func (r *meetingRepository) ListByUser(ctx context.Context, userID types.UserID) ([]*model.Meeting, error) {
	return r.list(ctx, "user_id", userID.String())
}

func (r *meetingRepository) ListByAgent(ctx context.Context, agentID types.AgentID) ([]*model.Meeting, error) {
	return r.list(ctx, "agent_id", agentID.String())
}

func (r *meetingRepository) Update(ctx context.Context, meeting *model.Meeting) (*model.Meeting, error) {
	res := r.db.WithContext(ctx).
		Model(&meetingRecord{}).
		Where("id = ?", meeting.ID.String()).
		Updates(map[string]any{
			"agent_id":   meeting.AgentID.String(),
			"name":       meeting.Name,
			"status":     meeting.Status.Normalize().String(),
			"started_at": meeting.StartedAt,
			"ended_at":   meeting.EndedAt,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, goerr.Wrap(res.Error, "failed to update meeting", goerr.V("meeting_id", meeting.ID))
	}
	if res.RowsAffected == 0 {
		return nil, goerr.Wrap(ErrNotFound, "meeting not found", goerr.V("meeting_id", meeting.ID))
	}
	return r.Get(ctx, meeting.ID)
}

// Delete removes the meeting. Transcript and summary go with it through the
// cascading foreign keys.
func (r *meetingRepository) Delete(ctx context.Context, id types.MeetingID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&meetingRecord{})
	if res.Error != nil {
		return goerr.Wrap(res.Error, "failed to delete meeting", goerr.V("meeting_id", id))
	}
	if res.RowsAffected == 0 {
		return goerr.Wrap(ErrNotFound, "meeting not found", goerr.V("meeting_id", id))
	}
	return nil
}

// upsertByMeeting is shared by transcripts and summaries, which are unique
// per meeting
func upsertByMeeting(ctx context.Context, db *gorm.DB, rec any) error {
	return db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "meeting_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"content", "created_at"}),
		}).
		Create(rec).Error
}

type transcriptRepository struct {
	db *gorm.DB
}

func (r *transcriptRepository) Put(ctx context.Context, transcript *model.Transcript) error {
	if err := transcript.MeetingID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid transcript")
	}

	rec := &transcriptRecord{
		ID:        transcript.ID.String(),
		MeetingID: transcript.MeetingID.String(),
		Content:   transcript.Content,
		CreatedAt: transcript.CreatedAt,
	}
	if rec.ID == "" {
		rec.ID = types.NewTranscriptID().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	if err := upsertByMeeting(ctx, r.db, rec); err != nil {
		return goerr.Wrap(err, "failed to put transcript", goerr.V("meeting_id", transcript.MeetingID))
	}
	return nil
}

func (r *transcriptRepository) GetByMeeting(ctx context.Context, meetingID types.MeetingID) (*model.Transcript, error) {
	var rec transcriptRecord
	if err := r.db.WithContext(ctx).Where("meeting_id = ?", meetingID.String()).Take(&rec).Error; err != nil {
		return nil, wrapErr(err, "failed to get transcript", goerr.V("meeting_id", meetingID))
	}
	return rec.toModel(), nil
}

type summaryRepository struct {
	db *gorm.DB
}

func (r *summaryRepository) Put(ctx context.Context, summary *model.Summary) error {
	if err := summary.MeetingID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid summary")
	}

	rec := &summaryRecord{
		ID:        summary.ID.String(),
		MeetingID: summary.MeetingID.String(),
		Content:   summary.Content,
		CreatedAt: summary.CreatedAt,
	}
	if rec.ID == "" {
		rec.ID = types.NewSummaryID().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	if err := upsertByMeeting(ctx, r.db, rec); err != nil {
		return goerr.Wrap(err, "failed to put summary", goerr.V("meeting_id", summary.MeetingID))
	}
	return nil
}

func (r *summaryRepository) GetByMeeting(ctx context.Context, meetingID types.MeetingID) (*model.Summary, error) {
	var rec summaryRecord
	if err := r.db.WithContext(ctx).Where("meeting_id = ?", meetingID.String()).Take(&rec).Error; err != nil {
		return nil, wrapErr(err, "failed to get summary", goerr.V("meeting_id", meetingID))
	}
	return rec.toModel(), nil
}
