package ownership

import (
	"context"
	"slices"

	"mugs/internal/people/models"
	"mugs/internal/store"
	"mugs/pkg/document"
	id "mugs/pkg/domain"
	dErrors "mugs/pkg/domain-errors"
)

// NextOfKinHooks make a next of kin own its address through addresses. A kin
// created without an address gets a default one, and releases it when reclaimed.
func NextOfKinHooks(repo *store.Repository[*models.NextOfKin], addresses *Resolver[*models.Address]) Hooks[*models.NextOfKin] {
	k := &kinHooks{repo: repo, addresses: addresses}
	return Hooks[*models.NextOfKin]{
		Create:  k.create,
		Update:  k.update,
		Reclaim: k.reclaim,
	}
}

type kinHooks struct {
	repo      *store.Repository[*models.NextOfKin]
	addresses *Resolver[*models.Address]
}

func (k *kinHooks) create(ctx context.Context, data document.Patch) (*models.NextOfKin, error) {
	addressIn := addressInput(data)
	if addressIn == nil {
		addressIn = &Input{Data: document.Patch{"city": models.DefaultCity}}
	}

	kin := k.repo.Collection().Schema().New()
	if err := data.Without("address").Apply(models.ModelNextOfKin, kin); err != nil {
		return nil, err
	}
	kin, err := k.repo.CreateDocument(ctx, kin)
	if err != nil {
		return nil, err
	}
	return k.resolveAddress(ctx, kin, addressIn)
}

func (k *kinHooks) update(ctx context.Context, kin *models.NextOfKin, data document.Patch) (*models.NextOfKin, error) {
	fields := slices.DeleteFunc(slices.Clone(models.NextOfKinUpdateFields), func(f string) bool { return f == "address" })
	addressIn := addressInput(data)

	if rest := data.Without("address"); len(rest) > 0 {
		var err error
		kin, err = k.repo.UpdateDocument(ctx, store.UpdateRequest{ID: kin.ID, Data: rest, AllowedFields: fields})
		if err != nil {
			return nil, err
		}
	}
	if addressIn == nil {
		return kin, nil
	}
	return k.resolveAddress(ctx, kin, addressIn)
}

func (k *kinHooks) resolveAddress(ctx context.Context, kin *models.NextOfKin, in *Input) (*models.NextOfKin, error) {
	ref, err := k.addresses.AddOrUpdate(ctx, models.NextOfKinOwner(kin.ID), kin.Address, in)
	if err != nil {
		return nil, dErrors.Reattribute(err, models.ModelNextOfKin)
	}
	if sameRef(ref, kin.Address) {
		return kin, nil
	}
	return k.repo.Modify(ctx, kin.ID, func(doc *models.NextOfKin) error {
		doc.Address = ref
		return nil
	})
}

func (k *kinHooks) reclaim(ctx context.Context, kin *models.NextOfKin) error {
	if kin.Address == nil {
		return nil
	}
	_, err := k.addresses.Detach(ctx, models.NextOfKinOwner(kin.ID), *kin.Address)
	return err
}

// addressInput reads the address relation, given either as an id string or
// as an object of fields with an optional id.
func addressInput(data document.Patch) *Input {
	switch v := data["address"].(type) {
	case string:
		return &Input{ID: v}
	case map[string]any:
		return NewInput(v)
	}
	return nil
}

func sameRef(a, b *id.ID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
