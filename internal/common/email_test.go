package common

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryEmailRecordsMessages(t *testing.T) {
	outbox := &InMemoryEmail{}
	require.NoError(t, outbox.Send("u-1", "Order o-1 confirmed", "<p>thanks</p>"))
	require.Len(t, outbox.Outbox, 1)
	assert.Equal(t, "u-1", outbox.Outbox[0].To)
	assert.Equal(t, "Order o-1 confirmed", outbox.Outbox[0].Subject)
}

func TestLogAndNopSendersNeverFail(t *testing.T) {
	assert.NoError(t, LogEmail{Logger: zerolog.Nop()}.Send("u-1", "s", "b"))
	assert.NoError(t, NopEmailSender{}.Send("u-1", "s", "b"))
}
