package urls

// Project URLs surfaced in error messages and help text.

// ProjectHome is the project repository with the README and usage
// documentation.
const ProjectHome = "https://github.com/ziima/recuair-cli"

// IssueTracker is where unrecognized status pages and other firmware
// surprises should be reported, ideally with the saved HTML attached.
const IssueTracker = "https://github.com/ziima/recuair-cli/issues"

// Releases lists published versions with changelogs.
const Releases = "https://github.com/ziima/recuair-cli/releases"
