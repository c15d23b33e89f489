package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListingWithMetafieldsKeepsCatalogPayload(t *testing.T) {
	product := `{"id":1,"title":"Flat","tags":"storefront_user_id:a@x.com","images":[],
		"variants":[{"id":9,"price":"100.00","compare_at_price":"120.00","inventory_quantity":3,"option1":"Default Title"}]}`
	metafields := `[{"id":5,"namespace":"custom","key":"size","value":"80","type":"single_line_text_field","description":null,"owner_id":1}]`

	var l Listing
	require.NoError(t, json.Unmarshal([]byte(product), &l))
	assert.EqualValues(t, 1, l.ID)
	assert.Equal(t, "100.00", l.Variants[0].Price)

	var mfs []Metafield
	require.NoError(t, json.Unmarshal([]byte(metafields), &mfs))

	out, err := json.Marshal(ListingWithMetafields{Listing: l, Metafields: mfs})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"title":"Flat","tags":"storefront_user_id:a@x.com","images":[],
		"variants":[{"id":9,"price":"100.00","compare_at_price":"120.00","inventory_quantity":3,"option1":"Default Title"}],
		"metafields":[{"id":5,"namespace":"custom","key":"size","value":"80","type":"single_line_text_field","description":null,"owner_id":1}]}`,
		string(out))
}

func TestListingWithMetafieldsBuiltLocally(t *testing.T) {
	out, err := json.Marshal([]ListingWithMetafields{{Listing: Listing{ID: 2, Title: "Room", Tags: "t"}}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":2,"title":"Room","tags":"t","images":[],"variants":[],"metafields":[]}]`, string(out))
}

func TestMetafieldInputEncoding(t *testing.T) {
	out, err := json.Marshal(Metafield{Namespace: "custom", Key: "bedrooms", Value: 2, Type: "number_integer"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"namespace":"custom","key":"bedrooms","value":2,"type":"number_integer"}`, string(out))
}
