// Command playmi manages content packages and WiFi onboarding codes for
// vehicle-mounted entertainment boxes: it generates archives, tracks their
// lifecycle, and provisions QR codes that connect passengers to the onboard
// portal.
package main
