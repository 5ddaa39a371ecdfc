package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPopulation_String(t *testing.T) {
	assert.Equal(t, "83,240,525", KnownPopulation(83240525).String())
	assert.Equal(t, "0", KnownPopulation(0).String())
	assert.Equal(t, NotAvailable, UnknownPopulation().String())
}

func TestCountry_JSONKeepsSentinel(t *testing.T) {
	c := Country{
		Name:       NotAvailable,
		Population: UnknownPopulation(),
		Region:     "Oceania",
		Languages:  NotAvailable,
		Flag:       NotAvailable,
		Capital:    NotAvailable,
	}

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"N/A","population":"N/A","region":"Oceania","languages":"N/A","flag":"N/A","capital":"N/A"}`, string(data))

	var back Country
	require.NoError(t, json.Unmarshal(data, &back))
	_, known := back.Population.Count()
	assert.False(t, known)
}

func TestPopulation_UnmarshalNumber(t *testing.T) {
	var p Population
	require.NoError(t, json.Unmarshal([]byte(`1402112000`), &p))

	n, known := p.Count()
	assert.True(t, known)
	assert.Equal(t, int64(1402112000), n)
}

func TestPopulation_UnmarshalRejectsOtherStrings(t *testing.T) {
	var p Population
	assert.Error(t, json.Unmarshal([]byte(`"many"`), &p))
}
