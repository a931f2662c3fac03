// Package vexil binds command line flags, properties files and secrets onto
// struct fields and package-level variables declared in code.
//
// # Declaring flags
//
// Struct fields are declared with tags and registered through a pointer:
//
//	type ConsulConfig struct {
//		vexil.PostConstruct `hooks:"Connect"`
//
//		Host     string `flag:"consul-host" description:"Consul host[:port]"`
//		Interval int64  `flag:"consul-health-check-interval" description:"Seconds between checks"`
//		Token    string `flag:"consul-token" description:"ACL token" required:"true"`
//		Mode     string `flag:"consul-mode" options:"agent,server"`
//	}
//
//	func (c *ConsulConfig) Connect() error { ... }
//
// Package-level variables are declared on a Class:
//
//	var (
//		serviceName string
//		port        int
//		verbose     bool
//	)
//
//	var serviceFlags = vexil.NewClass("service").
//		String(&serviceName, "service-name", "Name of the service", vexil.Required()).
//		Int(&port, "port", "Listen port").
//		Bool(&verbose, "verbose", "Verbose logging")
//
// Supported types are string, int, int32, int64, bool, pointers to those,
// and named string or integer types implementing Enum.
//
// # Parsing
//
//	flags := vexil.New(vexil.Config{Version: "1.4.0"})
//	if err := flags.RegisterClass(serviceFlags); err != nil {
//		return err
//	}
//	if err := flags.RegisterInstance(&consul); err != nil {
//		return err
//	}
//	if err := flags.Parse(os.Args[1:]); err != nil {
//		flags.PrintHelp(os.Stderr)
//		return err
//	}
//	if flags.HelpRequested() {
//		return flags.PrintHelp(os.Stdout)
//	}
//
// Options take the forms --name=value, --name value and, for booleans, a
// bare --name. The reserved --properties-file option loads one or more
// files separated by ';'. Command line values win over file values, and
// later files win over earlier ones. Files ending in .yaml, .yml, .json,
// .hcl or .tf are read in that format; anything else is a .properties file.
//
// # Secrets
//
// Config.SecretResolvers rewrite the argument list before binding. The
// ReferenceResolver replaces secret:<scheme>:<ref> references through
// providers; env and file are built in, and the providers/redis and
// providers/s3 packages add Redis and S3 backed ones.
//
// # Errors
//
// Every error carries a code from github.com/agilira/go-errors; use
// ErrorCode or HasCode to inspect it. Binding is atomic: when Parse fails
// because of user input, no field has been written.
package vexil
