package records_test

import (
	"context"
	"errors"
	"time"

	"github.com/stretchr/testify/suite"

	"mugs/internal/archive"
	id "mugs/pkg/domain"
	"mugs/pkg/platform/sentinel"
)

// StoreSuite is the behaviour shared by every archive record store.
type StoreSuite struct {
	suite.Suite
	open  func() archive.Store
	ctx   context.Context
	store archive.Store
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.open()
}

func record(target archive.Target, model string, actor id.ID) *archive.Record {
	return &archive.Record{
		ID:          id.NewID(),
		Target:      target,
		Model:       model,
		SourceID:    id.NewID(),
		DeletedByID: actor,
		DeletedBy:   map[string]any{"nationalId": "M1"},
		DeletedAt:   time.Now().UTC().Truncate(time.Millisecond),
		Deleted:     map[string]any{"firstName": "Ada", archive.ModelKey: model},
	}
}

func (s *StoreSuite) TestAppendAndFind() {
	rec := record(archive.TargetPerson, "Student", id.NewID())
	s.Require().NoError(s.store.Append(s.ctx, rec))

	got, err := s.store.FindByID(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal(rec.SourceID, got.SourceID)
	s.Equal(rec.DeletedByID, got.DeletedByID)
	s.Equal("Ada", got.Deleted["firstName"])
	s.Equal("M1", got.DeletedBy["nationalId"])
	s.WithinDuration(rec.DeletedAt, got.DeletedAt, time.Millisecond)

	_, err = s.store.FindByID(s.ctx, id.NewID())
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *StoreSuite) TestAppendIsWriteOnce() {
	rec := record(archive.TargetObject, "Role", id.NewID())
	s.Require().NoError(s.store.Append(s.ctx, rec))
	s.True(errors.Is(s.store.Append(s.ctx, rec), sentinel.ErrAlreadyUsed))
}

func (s *StoreSuite) TestListAndCount() {
	actor, other := id.NewID(), id.NewID()
	for _, rec := range []*archive.Record{
		record(archive.TargetPerson, "Student", actor),
		record(archive.TargetPerson, "Admin", actor),
		record(archive.TargetPerson, "Student", other),
		record(archive.TargetObject, "Role", actor),
	} {
		s.Require().NoError(s.store.Append(s.ctx, rec))
	}

	people, err := s.store.List(s.ctx, archive.Query{Target: archive.TargetPerson})
	s.Require().NoError(err)
	s.Len(people, 3)

	students, err := s.store.List(s.ctx, archive.Query{Target: archive.TargetPerson, Model: "Student"})
	s.Require().NoError(err)
	s.Len(students, 2)

	n, err := s.store.CountByActor(s.ctx, actor, archive.TargetPerson, []string{"Student", "Admin"})
	s.Require().NoError(err)
	s.Equal(2, n)

	n, err = s.store.CountByActor(s.ctx, actor, archive.TargetObject, []string{"Trade"})
	s.Require().NoError(err)
	s.Zero(n)
}
