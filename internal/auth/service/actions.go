package service

import (
	"context"
	"slices"

	"mugs/internal/archive"
	"mugs/internal/auth/models"
	"mugs/internal/store"
	id "mugs/pkg/domain"
	dErrors "mugs/pkg/domain-errors"
)

// CountActions counts the writes of actor. typ is ALL, PEOPLE, OTHER, BIN1,
// BIN2, User or a single model name.
//
// CREATE and UPDATE count live documents stamped createdBy or modifiedBy the
// actor; the bins BIN1 and BIN2 only group deletions and count zero here.
// DELETE counts archive records, PEOPLE and BIN1 reading DeletedPerson and
// OTHER and BIN2 reading DeletedObject, plus users the actor soft-deleted.
func (s *Service) CountActions(ctx context.Context, actorID id.ID, action models.Action, typ string) (int, error) {
	if s.archive == nil {
		return 0, dErrors.New(dErrors.CodeInternal, "activity counts are not configured")
	}
	switch action {
	case models.ActionCreate:
		return s.countStamped(ctx, "createdBy", actorID, typ)
	case models.ActionUpdate:
		return s.countStamped(ctx, "modifiedBy", actorID, typ)
	case models.ActionDelete:
		return s.countDeleted(ctx, actorID, typ)
	}
	_, err := models.ParseAction(string(action))
	return 0, err
}

func (s *Service) countStamped(ctx context.Context, field string, actorID id.ID, typ string) (int, error) {
	bins := s.cfg.Bins
	var targets []string
	switch typ {
	case models.TypeAll:
		targets = slices.Concat(bins.People, bins.Other)
	case models.TypePeople:
		targets = bins.People
	case models.TypeOther:
		targets = bins.Other
	case models.TypeBin1, models.TypeBin2:
		return 0, nil
	default:
		if _, ok := s.counters[typ]; !ok {
			return 0, unknownType(typ)
		}
		targets = []string{typ}
	}

	total := 0
	for _, model := range targets {
		c, ok := s.counters[model]
		if !ok {
			continue
		}
		n, err := c.Count(ctx, store.Eq{Field: field, Value: actorID})
		if err != nil {
			return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count "+model)
		}
		total += n
	}
	return total, nil
}

func (s *Service) countDeleted(ctx context.Context, actorID id.ID, typ string) (int, error) {
	bins := s.cfg.Bins
	switch {
	case typ == models.TypeAll:
		people, err := s.countArchived(ctx, actorID, archive.TargetPerson, bins.People)
		if err != nil {
			return 0, err
		}
		other, err := s.countArchived(ctx, actorID, archive.TargetObject, bins.Other)
		if err != nil {
			return 0, err
		}
		users, err := s.countDeletedUsers(ctx, actorID)
		if err != nil {
			return 0, err
		}
		return people + other + users, nil
	case typ == models.TypePeople || typ == models.TypeBin1:
		return s.countArchived(ctx, actorID, archive.TargetPerson, bins.People)
	case typ == models.TypeOther || typ == models.TypeBin2:
		return s.countArchived(ctx, actorID, archive.TargetObject, bins.Other)
	case typ == models.ModelUser:
		return s.countDeletedUsers(ctx, actorID)
	case slices.Contains(bins.People, typ):
		return s.countArchived(ctx, actorID, archive.TargetPerson, []string{typ})
	case slices.Contains(bins.Other, typ):
		return s.countArchived(ctx, actorID, archive.TargetObject, []string{typ})
	}
	return 0, unknownType(typ)
}

func (s *Service) countArchived(ctx context.Context, actorID id.ID, target archive.Target, models []string) (int, error) {
	n, err := s.archive.CountByActor(ctx, actorID, target, models)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count "+string(target))
	}
	return n, nil
}

func (s *Service) countDeletedUsers(ctx context.Context, actorID id.ID) (int, error) {
	n, err := s.users.Collection().Count(ctx, store.Eq{Field: "deletedBy", Value: actorID})
	if err != nil {
		return 0, s.users.Translate(err)
	}
	return n, nil
}

func unknownType(typ string) error {
	return dErrors.Field(dErrors.CodeBadRequest, "", "type", typ, dErrors.KindEnum, "unknown activity type "+typ)
}
