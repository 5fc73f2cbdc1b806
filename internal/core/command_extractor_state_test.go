package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocState_StepsDoNotShareHistory(t *testing.T) {
	f := OrderNumberFinder{}

	a := docState{}.withOrderFrom(f, "Commande n° 111111")
	b := a.withOrderFrom(f, "Commande n° 222222")
	c := a.withOrderFrom(f, "Commande n° 333333")

	assert.Equal(t, []string{"111111"}, a.seen)
	assert.Equal(t, "111111", a.order)
	assert.Equal(t, []string{"111111", "222222"}, b.seen)
	assert.Equal(t, []string{"111111", "333333"}, c.seen)
}

func TestCommandStep_LeavesInputStateUntouched(t *testing.T) {
	e := NewExtractor(false)
	start := docState{}

	s, rec := e.commandStep(start, "Commande n° 123456")
	assert.Nil(t, rec)
	s, _ = e.commandStep(s, "Réf. frn Code EAN Désignation Qté")
	_, rec = e.commandStep(s, "1 12345 3001234567892 YAOURT 10")

	if assert.NotNil(t, rec) {
		assert.Equal(t, "123456", rec.OrderNumber)
	}
	assert.Equal(t, docState{}, start)
	assert.Equal(t, NoOrderNumber, start.currentOrder())
}
