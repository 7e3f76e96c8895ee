package otel

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"cemas.ai/backend/core/config"
)

var _ = Describe("parseHeaders", func() {
	It("splits comma separated key=value pairs", func() {
		Expect(parseHeaders("a=1, b = two,broken")).To(Equal(map[string]string{
			"a": "1",
			"b": "two",
		}))
	})

	It("keeps '=' inside values", func() {
		Expect(parseHeaders("Authorization=Basic abc==")).To(HaveKeyWithValue("Authorization", "Basic abc=="))
	})

	It("returns an empty map for an empty string", func() {
		Expect(parseHeaders("")).To(BeEmpty())
	})
})

var _ = Describe("sampler", func() {
	It("describes ratio, never and always samplers", func() {
		Expect(sampler(0).Description()).To(ContainSubstring("AlwaysOffSampler"))
		Expect(sampler(1).Description()).To(ContainSubstring("AlwaysOnSampler"))
		Expect(sampler(0.25).Description()).To(ContainSubstring("TraceIDRatioBased{0.25}"))
	})
})

var _ = Describe("Setup", func() {
	It("is a no-op without an endpoint", func() {
		tel, err := Setup(context.Background(), config.OTelConfig{})
		Expect(err).NotTo(HaveOccurred())
		Expect(tel).To(BeNil())
	})
})
