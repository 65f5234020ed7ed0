// Package mcp exposes the preference store and the coach as Model Context
// Protocol tools, so agent runtimes can read and write the same state the
// mini app uses. The server speaks streamable HTTP and is mounted on the
// main mux at /mcp.
//
// Preference tools surface raw store errors (absent key, quota, outage) as
// tool errors rather than swallowing them: an agent should see exactly why
// a write was rejected.
package mcp
