// Package hcloud implements workspace.Provider on Hetzner Cloud servers.
//
// The workspace request template is mapped onto hcloud.ServerCreateOpts:
//
//   - server_type: server type name (required)
//   - image: image name (required)
//   - location: location name (optional)
//   - ssh_keys: list of SSH key names or IDs registered in the project
//   - labels: string map attached to the server
//   - user_data: cloud-init document
//
// A server's address is its public IPv4, falling back to the public IPv6.
// Servers are created asynchronously: Create returns as soon as the API
// accepted the request, and the caller polls Get for the address.
package hcloud
