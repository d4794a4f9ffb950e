// Package api implements the gateway's HTTP surface (spec component
// C9): JSON request handlers over stdlib net/http, bearer-key
// authentication, and the WebSocket upgrade routes. Every handler is a
// thin adapter — decode DTO, call a service, encode DTO or envelope —
// with all transport error mapping centralised in envelope.go.
package api
