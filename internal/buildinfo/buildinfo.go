// Package buildinfo holds the banner printed by the binaries on start.
package buildinfo

const ProjectName = "partyhost"

const Graffiti = `
  ___  __ _ _ __| |_ _   _| |__   ___  ___| |_
 / _ \/ _' | '__| __| | | | '_ \ / _ \/ __| __|
| |_) | (_| | |  | |_| |_| | | | | (_) \__ \ |_
| .__/ \__,_|_|   \__|\__, |_| |_|\___/|___/\__|
|_|                   |___/
`

// GreetingCLI takes the project name, version and listen address.
const GreetingCLI = "%s %s, listening on %s\n\n"
