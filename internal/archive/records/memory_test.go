package records_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"mugs/internal/archive"
	"mugs/internal/archive/records"
)

func TestInMemoryStore(t *testing.T) {
	suite.Run(t, &StoreSuite{open: func() archive.Store { return records.NewInMemory() }})
}
