// Package surf implements workspace.Provider against the SURF Research
// Cloud workspace API.
//
// The API is a plain JSON REST collection: workspaces are created with a
// POST to the collection, read and deleted at "<collection>/<id>/", and
// listed with paginated GETs that carry a "next" link. Every request is
// authorised with the raw API key in the authorization header.
package surf
