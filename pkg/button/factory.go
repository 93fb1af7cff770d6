package button

import (
	"context"

	"github.com/gotd/td/tg"

	"tgmarkup/pkg/peer"
)

// Factory builds the user-bound button kinds from textual references,
// resolving them through a peer.Resolver first. Resolver errors are
// returned unchanged.
type Factory struct {
	resolver peer.Resolver
}

func NewFactory(r peer.Resolver) *Factory {
	return &Factory{resolver: r}
}

func (f *Factory) resolve(ctx context.Context, ref string) (tg.InputUserClass, error) {
	r, err := peer.ParseRef(ref)
	if err != nil {
		return nil, err
	}
	if r.Kind == peer.RefSelf {
		return &tg.InputUserSelf{}, nil
	}
	if f == nil || f.resolver == nil {
		return nil, &peer.ResolutionError{Ref: ref, Err: peer.ErrNotFound}
	}
	return f.resolver.ResolveUser(ctx, ref)
}

// Auth is like the package-level Auth with the bot given as a reference.
func (f *Factory) Auth(ctx context.Context, text, url, botRef string, opts ...AuthOption) (*Button, error) {
	bot, err := f.resolve(ctx, botRef)
	if err != nil {
		return nil, err
	}
	all := make([]AuthOption, 0, len(opts)+2)
	all = append(all, AuthURL(url), AuthBot(bot))
	all = append(all, opts...)
	return Auth(text, all...)
}

// Mention is like the package-level Mention with the user given as a reference.
func (f *Factory) Mention(ctx context.Context, text, userRef string) (*Button, error) {
	user, err := f.resolve(ctx, userRef)
	if err != nil {
		return nil, err
	}
	return Mention(text, user)
}
