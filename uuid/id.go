package uuid

import (
	"github.com/davison/tradedesk"
	"github.com/google/uuid"
)

type IDService struct{}

func (ids *IDService) NewID() tradedesk.ID {
	return uuid.New()
}

func (ids *IDService) NewIDFromString(id string) (tradedesk.ID, error) {
	return uuid.Parse(id)
}
