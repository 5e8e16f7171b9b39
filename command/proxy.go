package command

// ProxyCommand schedules another command through the outer scheduler rather
// than running it within a composition. Initialize schedules the inner
// command on the singleton scheduler; the proxy is finished once the inner
// command is no longer scheduled.
//
// End(interrupted=true) cancels the inner command; End(interrupted=false)
// leaves it alone, since it has already finished on its own. Note the
// asymmetry: a proxy interrupted while its inner command was meant to be a
// long-lived task takes that task down with it.
//
// The proxy deliberately declares no requirements, which is the point: a
// composition containing a proxy does not hold the inner command's
// subsystems for the full life of the composition.
type ProxyCommand struct {
	CommandBase
	supplier func() Command
	command  Command
}

// NewProxyCommand creates a proxy that schedules the given command.
func NewProxyCommand(c Command) *ProxyCommand {
	p := &ProxyCommand{
		CommandBase: NewCommandBase("Proxy(" + c.Name() + ")"),
		supplier:    func() Command { return c },
	}
	return p
}

// NewProxyCommandFromSupplier creates a proxy whose target is produced by
// the supplier at each scheduling.
func NewProxyCommandFromSupplier(supplier func() Command) *ProxyCommand {
	return &ProxyCommand{
		CommandBase: NewCommandBase("ProxyCommand"),
		supplier:    supplier,
	}
}

func (p *ProxyCommand) Initialize() {
	p.command = nil
	if p.supplier != nil {
		p.command = p.supplier()
	}
	if p.command != nil {
		_ = GetInstance().Schedule(p.command)
	}
}

func (p *ProxyCommand) Execute() {}

func (p *ProxyCommand) End(interrupted bool) {
	if interrupted && p.command != nil {
		GetInstance().Cancel(p.command)
	}
	p.command = nil
}

func (p *ProxyCommand) IsFinished() bool {
	return p.command == nil || !GetInstance().IsScheduled(p.command)
}
