package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	c, err := ParseClock("09:05")
	require.NoError(t, err)
	assert.Equal(t, Clock(9*60+5), c)
	assert.Equal(t, "09:05", c.String())

	c, err = ParseClock("17:30:00")
	require.NoError(t, err)
	assert.Equal(t, "17:30", c.String())

	for _, bad := range []string{"", "9", "25:00", "ab:cd"} {
		_, err := ParseClock(bad)
		assert.ErrorIs(t, err, ErrBadClock, bad)
	}
}

func TestClockOn(t *testing.T) {
	loc, err := time.LoadLocation("Africa/Casablanca")
	require.NoError(t, err)
	d, _ := ParseDate("2026-03-10")
	got := Clock(14*60 + 30).On(d, loc)
	assert.Equal(t, 14, got.Hour())
	assert.Equal(t, 10, got.Day())
	assert.Equal(t, loc, got.Location())
}

func TestFullName(t *testing.T) {
	assert.Equal(t, "Amina Idrissi", (&User{FirstName: "Amina", LastName: "Idrissi"}).FullName())
	assert.Equal(t, "amina", (&User{Username: "amina"}).FullName())
	assert.Equal(t, "Amina", (&User{FirstName: "Amina"}).FullName())
}

func TestEnums(t *testing.T) {
	assert.True(t, UserUniversityStaff.Valid())
	assert.False(t, UserType("guest").Valid())
	assert.Equal(t, "University Staff", UserUniversityStaff.Label())
	assert.True(t, MeetingOnline.ValidForSlot())
	assert.False(t, MeetingAny.ValidForSlot())
	assert.True(t, AppointmentNoShow.Valid())
	assert.False(t, SlotStatus("open").Valid())
}
