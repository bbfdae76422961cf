// Package adaprov provisions fully configured AI agent demo instances.
//
// A provisioning run takes a company name and turns it into a working demo
// bot: a cloned template instance, generated knowledge articles and
// customer questions, mock API endpoints with matching imported actions,
// and a set of seeded conversations. The run is driven by Provisioner.Run,
// which reports progress through an events.Hook and returns a
// ProvisioningResult describing everything that was built.
//
// The heavy lifting is delegated to focused packages: handle derives bot
// identities, content generates and parses model output, platform talks to
// the bot management API, mockapi provisions mock endpoints, and browser
// automates the dashboard tasks that have no API.
package adaprov
